package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const DefaultMIME = "image/jpeg"

var ErrEmptyImage = errors.New("empty image")

// Image is an encoded still together with its MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

func (i Image) Empty() bool {
	return len(i.Data) == 0
}

func (i Image) Mime() string {
	if strings.TrimSpace(i.MimeType) == "" {
		return DefaultMIME
	}
	return i.MimeType
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) DataURL() string {
	if i.Empty() {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", i.Mime(), i.Base64())
}

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+)?(;[^,]*)?,`)

// ParseDataURL accepts a data URL or a bare base64 payload.
func ParseDataURL(value string) (Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Image{}, ErrEmptyImage
	}

	mime := DefaultMIME
	payload := value
	if strings.HasPrefix(value, "data:") {
		matches := dataURLRegex.FindStringSubmatch(value)
		if matches == nil {
			return Image{}, errors.New("invalid data url")
		}
		if m := strings.TrimSpace(matches[1]); m != "" {
			mime = m
		}
		payload = value[len(matches[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}

	return Image{Data: data, MimeType: mime}, nil
}

const (
	GalleryMaxBytes     = 250 * 1024
	GalleryMaxDimension = 1920
)

// Compress re-encodes img as JPEG no larger than maxDim on its long side and
// lowers quality until the result fits maxBytes. When even the lowest quality
// is too large the smallest attempt is returned.
func Compress(img Image, maxBytes, maxDim int) (Image, error) {
	if img.Empty() {
		return Image{}, ErrEmptyImage
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}

	if maxDim > 0 {
		b := decoded.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			decoded = resize.Thumbnail(uint(maxDim), uint(maxDim), decoded, resize.Lanczos3)
		}
	}

	var best []byte
	for quality := 80; quality >= 10; quality -= 10 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: quality}); err != nil {
			return Image{}, fmt.Errorf("encode jpeg: %w", err)
		}
		best = buf.Bytes()
		if maxBytes <= 0 || buf.Len() <= maxBytes {
			break
		}
	}

	return Image{Data: best, MimeType: DefaultMIME}, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// DownloadFilename is the name the kiosk saves the final image under.
func DownloadFilename(fullName string, now time.Time) string {
	sanitized := nonAlnum.ReplaceAllString(strings.ToLower(fullName), "_")
	return fmt.Sprintf("dreamsnap_%s_%d.jpg", sanitized, now.UnixMilli())
}

var whitespace = regexp.MustCompile(`\s+`)

func slug(value string) string {
	value = whitespace.ReplaceAllString(strings.TrimSpace(value), "-")
	value = strings.ToLower(value)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '?' || r == '#' || r == '%':
			return -1
		default:
			return r
		}
	}, value)
}

// GalleryObjectName is unique per upload even for identical names and themes.
func GalleryObjectName(fullName, themeName string, now time.Time) string {
	return fmt.Sprintf("%d-%s-%s-%s.jpg", now.UnixMilli(), uuid.NewString(), slug(fullName), slug(themeName))
}
