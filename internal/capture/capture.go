package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"dreamsnap-booth/internal/camera"
	"dreamsnap-booth/internal/session"
)

const CameraErrorMessage = "Unable to access camera. Please check your permissions."

var (
	ErrCaptureInProgress = errors.New("capture already in progress")
	ErrCameraUnavailable = errors.New("camera unavailable")
	errStale             = errors.New("session moved on")
)

type Options struct {
	Sessions *session.Store
	Source   camera.Source
	Logger   *slog.Logger

	CountdownFrom int
	CountdownStep time.Duration
	FrameInterval time.Duration
	AdvanceDelay  time.Duration

	// OnFrame is called after every stored frame.
	OnFrame func()
}

// Controller runs the countdown and burst for a session.
type Controller struct {
	sessions *session.Store
	source   camera.Source
	logger   *slog.Logger

	countdownFrom int
	countdownStep time.Duration
	frameInterval time.Duration
	advanceDelay  time.Duration
	onFrame       func()
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Controller{
		sessions:      opts.Sessions,
		source:        opts.Source,
		logger:        logger,
		countdownFrom: opts.CountdownFrom,
		countdownStep: opts.CountdownStep,
		frameInterval: opts.FrameInterval,
		advanceDelay:  opts.AdvanceDelay,
		onFrame:       opts.OnFrame,
	}
	if c.countdownFrom <= 0 {
		c.countdownFrom = 3
	}
	if c.countdownStep <= 0 {
		c.countdownStep = time.Second
	}
	if c.frameInterval <= 0 {
		c.frameInterval = 250 * time.Millisecond
	}
	if c.advanceDelay <= 0 {
		c.advanceDelay = 500 * time.Millisecond
	}
	return c
}

// Begin takes the capture latch and clears any previous burst. It returns the
// session epoch Run must be called with.
func (c *Controller) Begin(id string) (int, error) {
	var epoch int
	_, err := c.sessions.Update(id, func(s *session.Session) error {
		if s.Capturing {
			return ErrCaptureInProgress
		}
		if s.CameraError != "" {
			return fmt.Errorf("%w: %s", ErrCameraUnavailable, s.CameraError)
		}
		if s.Step != session.StepCapture {
			return fmt.Errorf("%w: capture in %s", session.ErrWrongStep, s.Step)
		}
		s.Capturing = true
		s.Photos = nil
		s.Selected = -1
		s.Countdown = c.countdownFrom
		epoch = s.Epoch
		return nil
	})
	return epoch, err
}

// Run performs the countdown, captures the burst and schedules the move to
// photo selection. It blocks until done.
func (c *Controller) Run(ctx context.Context, id string, epoch int) error {
	err := c.run(ctx, id, epoch)
	if errors.Is(err, errStale) {
		c.logger.Debug("capture abandoned", "session", id)
		return nil
	}
	if err != nil {
		_, _ = c.sessions.Update(id, func(s *session.Session) error {
			if s.Epoch == epoch {
				s.Capturing = false
				s.Countdown = 0
			}
			return nil
		})
	}
	return err
}

// Burst is Begin followed by Run.
func (c *Controller) Burst(ctx context.Context, id string) error {
	epoch, err := c.Begin(id)
	if err != nil {
		return err
	}
	return c.Run(ctx, id, epoch)
}

func (c *Controller) run(ctx context.Context, id string, epoch int) error {
	for n := c.countdownFrom; n >= 1; n-- {
		if err := c.apply(id, epoch, func(s *session.Session) { s.Countdown = n }); err != nil {
			return err
		}
		if err := sleep(ctx, c.countdownStep); err != nil {
			return err
		}
	}

	var constraints camera.Constraints
	if err := c.apply(id, epoch, func(s *session.Session) {
		s.Countdown = 0
		constraints = camera.ForViewport(s.Portrait, string(s.Facing))
	}); err != nil {
		return err
	}

	for i := 0; i < session.BurstSize; i++ {
		if i > 0 {
			if err := sleep(ctx, c.frameInterval); err != nil {
				return err
			}
		}

		frame, err := c.source.Frame(ctx, constraints)
		if err != nil {
			c.logger.Error("camera frame failed", "session", id, "frame", i, "err", err)
			_ = c.apply(id, epoch, func(s *session.Session) {
				s.CameraError = CameraErrorMessage
			})
			return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}

		idx := i
		if err := c.apply(id, epoch, func(s *session.Session) {
			s.Photos = append(s.Photos, session.Photo{Index: idx, Image: frame, CapturedAt: time.Now()})
		}); err != nil {
			return err
		}
		if c.onFrame != nil {
			c.onFrame()
		}
	}

	if err := c.apply(id, epoch, func(s *session.Session) { s.Capturing = false }); err != nil {
		return err
	}
	c.logger.Info("burst captured", "session", id, "frames", session.BurstSize)

	if err := sleep(ctx, c.advanceDelay); err != nil {
		return nil
	}
	_, err := c.sessions.Update(id, func(s *session.Session) error {
		if s.Epoch != epoch || s.Step != session.StepCapture || len(s.Photos) != session.BurstSize {
			return nil
		}
		return s.Goto(session.StepSelect)
	})
	return err
}

func (c *Controller) apply(id string, epoch int, fn func(*session.Session)) error {
	_, err := c.sessions.Update(id, func(s *session.Session) error {
		if s.Epoch != epoch || s.Step != session.StepCapture {
			return errStale
		}
		fn(s)
		return nil
	})
	return err
}

// ToggleFacing flips between the front and rear camera.
func (c *Controller) ToggleFacing(id string) (session.Session, error) {
	return c.sessions.Update(id, func(s *session.Session) error {
		if s.Capturing {
			return ErrCaptureInProgress
		}
		if s.Facing == session.FacingUser {
			s.Facing = session.FacingEnvironment
		} else {
			s.Facing = session.FacingUser
		}
		return nil
	})
}

// SetViewport re-evaluates orientation on resize or rotation.
func (c *Controller) SetViewport(id string, width, height int) (session.Session, error) {
	return c.sessions.Update(id, func(s *session.Session) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("invalid viewport %dx%d", width, height)
		}
		s.Portrait = height > width
		return nil
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
