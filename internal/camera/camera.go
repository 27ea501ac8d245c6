package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dreamsnap-booth/internal/httpclient"
	"dreamsnap-booth/internal/media"
)

var ErrNotConfigured = errors.New("camera not configured")

// Constraints describe the frame the kiosk wants.
type Constraints struct {
	Width       int
	Height      int
	AspectRatio string
	Facing      string
}

// ForViewport picks portrait constraints when the viewport is taller than it
// is wide.
func ForViewport(portrait bool, facing string) Constraints {
	if portrait {
		return Constraints{Width: 1080, Height: 1920, AspectRatio: "9:16", Facing: facing}
	}
	return Constraints{Width: 1920, Height: 1080, AspectRatio: "16:9", Facing: facing}
}

type Source interface {
	Frame(ctx context.Context, c Constraints) (media.Image, error)
}

// HTTPSnapshot grabs single JPEG frames from a snapshot endpoint such as an
// IP camera or mjpg-streamer's ?action=snapshot.
type HTTPSnapshot struct {
	url    string
	client *http.Client
}

func NewHTTPSnapshot(snapshotURL string, client *http.Client) *HTTPSnapshot {
	return &HTTPSnapshot{url: snapshotURL, client: client}
}

func (h *HTTPSnapshot) Frame(ctx context.Context, c Constraints) (media.Image, error) {
	if h == nil || h.url == "" {
		return media.Image{}, ErrNotConfigured
	}

	u, err := url.Parse(h.url)
	if err != nil {
		return media.Image{}, fmt.Errorf("parse snapshot url: %w", err)
	}
	q := u.Query()
	if c.Width > 0 {
		q.Set("width", strconv.Itoa(c.Width))
	}
	if c.Height > 0 {
		q.Set("height", strconv.Itoa(c.Height))
	}
	if c.Facing != "" {
		q.Set("facing", c.Facing)
	}
	u.RawQuery = q.Encode()

	data, mime, err := httpclient.Fetch(ctx, h.client, u.String())
	if err != nil {
		return media.Image{}, fmt.Errorf("snapshot: %w", err)
	}
	if len(data) == 0 {
		return media.Image{}, errors.New("snapshot: empty frame")
	}
	return media.Image{Data: data, MimeType: mime}, nil
}
