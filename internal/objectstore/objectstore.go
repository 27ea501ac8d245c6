package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const GalleryBucket = "gallery-photos"

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidName  = errors.New("invalid object name")
)

// Bucket stores public objects on local disk. Files land in
// <baseDir>/<bucket>/<name> and are served at <baseURL>/<bucket>/<name>.
// An empty bucket keeps objects directly under baseDir.
type Bucket struct {
	baseDir string
	baseURL string
	name    string
}

func New(baseDir, baseURL, bucket string) (*Bucket, error) {
	if strings.ContainsAny(bucket, `/\`) || strings.HasPrefix(bucket, ".") {
		return nil, fmt.Errorf("%w: bucket %q", ErrInvalidName, bucket)
	}
	if err := os.MkdirAll(filepath.Join(baseDir, bucket), 0o755); err != nil {
		return nil, err
	}
	return &Bucket{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		name:    bucket,
	}, nil
}

func (b *Bucket) Name() string { return b.name }

// Root is the directory that backs baseURL.
func (b *Bucket) Root() string { return b.baseDir }

// Upload writes data under name and returns its public URL. Existing
// objects are never overwritten.
func (b *Bucket) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := b.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Link fails if the target exists, which gives create-only semantics.
	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrObjectExists, name)
		}
		return "", fmt.Errorf("failed to publish object: %w", err)
	}

	return b.PublicURL(name), nil
}

func (b *Bucket) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.path(name)
	if err != nil {
		return err
	}
	return os.Remove(target)
}

func (b *Bucket) PublicURL(name string) string {
	if b.name == "" {
		return b.baseURL + "/" + url.PathEscape(name)
	}
	return b.baseURL + "/" + path.Join(url.PathEscape(b.name), url.PathEscape(name))
}

// Writable checks the bucket by uploading and removing a probe object.
func (b *Bucket) Writable(ctx context.Context) error {
	name := fmt.Sprintf("diagnostic-test-%d.jpg", time.Now().UnixMilli())
	if _, err := b.Upload(ctx, name, []byte{0xff, 0xd8, 0xff, 0xd9}); err != nil {
		return err
	}
	return b.Delete(ctx, name)
}

func (b *Bucket) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(b.baseDir, b.name, name), nil
}
