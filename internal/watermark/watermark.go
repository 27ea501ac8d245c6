package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"dreamsnap-booth/internal/media"
)

const (
	MaxWidth     = 300
	BottomMargin = 45
	PillPadding  = 16
	PillAlpha    = 0.95
	JPEGQuality  = 95
)

// Apply composites mark at the bottom center of base on a white pill and
// returns a JPEG. The output depends only on the two inputs.
func Apply(base, mark media.Image) (media.Image, error) {
	if base.Empty() {
		return media.Image{}, errors.New("base image is empty")
	}
	if mark.Empty() {
		return media.Image{}, errors.New("watermark is empty")
	}

	baseImg, _, err := image.Decode(bytes.NewReader(base.Data))
	if err != nil {
		return media.Image{}, fmt.Errorf("decode base: %w", err)
	}
	markImg, _, err := image.Decode(bytes.NewReader(mark.Data))
	if err != nil {
		return media.Image{}, fmt.Errorf("decode watermark: %w", err)
	}

	out, err := Composite(baseImg, markImg)
	if err != nil {
		return media.Image{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return media.Image{}, fmt.Errorf("encode: %w", err)
	}
	return media.Image{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
}

// Layout is where the mark and its pill land on a canvas.
type Layout struct {
	X, Y          float64
	Width, Height float64
	PillX, PillY  float64
	PillW, PillH  float64
	Radius        float64
}

// Place computes the layout for a canvas of cw x ch and a mark of mw x mh.
func Place(cw, ch, mw, mh int) Layout {
	w := math.Min(MaxWidth, float64(mw))
	h := w / (float64(mw) / float64(mh))
	x := (float64(cw) - w) / 2
	y := float64(ch) - h - BottomMargin
	pillH := h + 2*PillPadding
	return Layout{
		X: x, Y: y, Width: w, Height: h,
		PillX: x - PillPadding, PillY: y - PillPadding,
		PillW: w + 2*PillPadding, PillH: pillH,
		Radius: pillH / 2,
	}
}

func Composite(base, mark image.Image) (image.Image, error) {
	bb := base.Bounds()
	mb := mark.Bounds()
	if mb.Dx() == 0 || mb.Dy() == 0 {
		return nil, errors.New("watermark has no pixels")
	}

	l := Place(bb.Dx(), bb.Dy(), mb.Dx(), mb.Dy())

	dc := gg.NewContext(bb.Dx(), bb.Dy())
	dc.DrawImage(base, -bb.Min.X, -bb.Min.Y)

	dc.SetRGBA(1, 1, 1, PillAlpha)
	dc.DrawRoundedRectangle(l.PillX, l.PillY, l.PillW, l.PillH, l.Radius)
	dc.Fill()

	w := uint(math.Round(l.Width))
	h := uint(math.Round(l.Height))
	scaled := mark
	if int(w) != mb.Dx() || int(h) != mb.Dy() {
		scaled = resize.Resize(w, h, mark, resize.Lanczos3)
	}
	dc.DrawImage(scaled, int(math.Round(l.X)), int(math.Round(l.Y)))

	return dc.Image(), nil
}
