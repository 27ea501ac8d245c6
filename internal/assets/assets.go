package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"dreamsnap-booth/internal/httpclient"
	"dreamsnap-booth/internal/media"
)

type Options struct {
	// Dir resolves site-relative paths such as "/previewImage/1.Beach.jpg".
	Dir        string
	HTTPClient *http.Client
	TTL        time.Duration
	Logger     *slog.Logger
}

// Loader fetches theme reference images and the watermark. Results are
// cached because every generation asks for the same handful of files.
type Loader struct {
	dir    string
	client *http.Client
	cache  *cache.Cache
	logger *slog.Logger
}

func New(opts Options) *Loader {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		dir:    opts.Dir,
		client: opts.HTTPClient,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Load returns the asset at ref, which may be an http(s) URL or a path.
func (l *Loader) Load(ctx context.Context, ref string) (media.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return media.Image{}, fmt.Errorf("empty asset reference")
	}

	if cached, ok := l.cache.Get(ref); ok {
		return cached.(media.Image), nil
	}

	var (
		img media.Image
		err error
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		var data []byte
		var mime string
		data, mime, err = httpclient.Fetch(ctx, l.client, ref)
		img = media.Image{Data: data, MimeType: mime}
	} else {
		img, err = l.readFile(ref)
	}
	if err != nil {
		return media.Image{}, fmt.Errorf("load asset %q: %w", ref, err)
	}

	l.cache.SetDefault(ref, img)
	l.logger.Debug("asset loaded", "ref", ref, "bytes", len(img.Data))
	return img, nil
}

func (l *Loader) readFile(ref string) (media.Image, error) {
	path := filepath.FromSlash(ref)
	if strings.HasPrefix(ref, "/") && !fileExists(path) {
		path = filepath.Join(l.dir, filepath.FromSlash(strings.TrimPrefix(ref, "/")))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return media.Image{}, err
	}
	return media.Image{Data: data, MimeType: httpclient.DetectMIME(mimeByExt(path), data)}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mimeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return ""
}

func (l *Loader) Flush() {
	l.cache.Flush()
}
