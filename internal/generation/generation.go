package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dreamsnap-booth/internal/gemini"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/theme"
	"dreamsnap-booth/internal/watermark"
)

var ErrReferenceImage = errors.New("failed to load reference image")

// ImageEditor restyles a photo. *gemini.Client satisfies it.
type ImageEditor interface {
	EditImage(ctx context.Context, req gemini.EditRequest) (media.Image, error)
}

// AssetLoader resolves reference images and the watermark. *assets.Loader
// satisfies it.
type AssetLoader interface {
	Load(ctx context.Context, ref string) (media.Image, error)
}

// ProgressFunc receives coarse progress updates between 0 and 100.
type ProgressFunc func(percent int, status string)

type Options struct {
	Editor       ImageEditor
	Assets       AssetLoader
	WatermarkRef string
	StepPause    time.Duration
	Logger       *slog.Logger
}

type Result struct {
	Generated   media.Image
	Final       media.Image
	Watermarked bool
}

type Orchestrator struct {
	editor       ImageEditor
	assets       AssetLoader
	watermarkRef string
	stepPause    time.Duration
	logger       *slog.Logger
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pause := opts.StepPause
	if pause < 0 {
		pause = 0
	}
	return &Orchestrator{
		editor:       opts.Editor,
		assets:       opts.Assets,
		watermarkRef: strings.TrimSpace(opts.WatermarkRef),
		stepPause:    pause,
		logger:       logger,
	}
}

// Generate turns photo into a themed portrait and stamps the watermark on it.
// A missing or broken watermark never fails the call; the generated image is
// used as the final image instead.
func (o *Orchestrator) Generate(ctx context.Context, photo media.Image, th theme.Theme, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if photo.Empty() {
		return Result{}, media.ErrEmptyImage
	}

	progress(20, "Preparing your photo...")
	if err := o.pause(ctx); err != nil {
		return Result{}, err
	}

	var (
		reference media.Image
		mark      media.Image
		markErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	if th.ReferenceImage != "" {
		g.Go(func() error {
			img, err := o.assets.Load(gctx, th.ReferenceImage)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrReferenceImage, err)
			}
			reference = img
			return nil
		})
	}
	if o.watermarkRef != "" {
		g.Go(func() error {
			mark, markErr = o.assets.Load(gctx, o.watermarkRef)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	progress(40, fmt.Sprintf("Applying %s theme...", th.Name))
	if err := o.pause(ctx); err != nil {
		return Result{}, err
	}

	prompt := th.Instruction()
	if !reference.Empty() {
		prompt = th.InstructionWithReference()
	}

	progress(60, "Generating with AI...")
	generated, err := o.editor.EditImage(ctx, gemini.EditRequest{
		Prompt:      prompt,
		Photo:       photo,
		Reference:   reference,
		AspectRatio: theme.AspectRatio,
	})
	if err != nil {
		return Result{}, err
	}

	progress(80, "Adding final touches...")
	res := Result{Generated: generated, Final: generated}
	switch {
	case o.watermarkRef == "":
	case markErr != nil:
		o.logger.Warn("watermark unavailable", "ref", o.watermarkRef, "err", markErr)
	default:
		final, err := watermark.Apply(generated, mark)
		if err != nil {
			o.logger.Warn("watermark failed, using generated image", "err", err)
			break
		}
		res.Final = final
		res.Watermarked = true
	}
	if err := o.pause(ctx); err != nil {
		return Result{}, err
	}

	progress(100, "Complete!")
	return res, nil
}

func (o *Orchestrator) pause(ctx context.Context) error {
	if o.stepPause <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(o.stepPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
