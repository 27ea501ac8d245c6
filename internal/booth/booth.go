package booth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"dreamsnap-booth/internal/capture"
	"dreamsnap-booth/internal/gemini"
	"dreamsnap-booth/internal/generation"
	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/metrics"
	"dreamsnap-booth/internal/session"
	"dreamsnap-booth/internal/submission"
	"dreamsnap-booth/internal/theme"
)

var (
	ErrAlreadyRunning = errors.New("operation already running")
	ErrNoImage        = errors.New("image not available")
)

// ValidationError carries field -> message problems of a lead form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid lead form: %d field(s)", len(e.Fields))
}

// Generator is satisfied by *generation.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, photo media.Image, th theme.Theme, progress generation.ProgressFunc) (generation.Result, error)
}

// Submitter is satisfied by *submission.Pipeline.
type Submitter interface {
	Submit(ctx context.Context, l lead.Lead, final media.Image) (submission.Report, error)
}

type Options struct {
	Sessions  *session.Store
	Capture   *capture.Controller
	Generator Generator
	Submitter Submitter
	EventID   string

	// JobTimeout bounds one generation or submission.
	JobTimeout    time.Duration
	MaxConcurrent int
	SessionIdle   time.Duration
	SweepInterval time.Duration

	Metrics *metrics.Metrics
	Now     func() time.Time
	Logger  *slog.Logger
}

// Service drives kiosk sessions through capture, generation and submission.
// Long-running work runs in goroutines that only write back while the
// session is still on the same epoch and step.
type Service struct {
	sessions  *session.Store
	capture   *capture.Controller
	generator Generator
	submitter Submitter
	eventID   string

	jobTimeout    time.Duration
	sessionIdle   time.Duration
	sweepInterval time.Duration

	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger

	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	jobTimeout := opts.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 240 * time.Second
	}
	idle := opts.SessionIdle
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	eventID := opts.EventID
	if eventID == "" {
		eventID = "default"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		sessions:      opts.Sessions,
		capture:       opts.Capture,
		generator:     opts.Generator,
		submitter:     opts.Submitter,
		eventID:       eventID,
		jobTimeout:    jobTimeout,
		sessionIdle:   idle,
		sweepInterval: sweep,
		metrics:       opts.Metrics,
		now:           now,
		logger:        logger,
		sem:           make(chan struct{}, maxConcurrent),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (s *Service) EventID() string { return s.eventID }

func (s *Service) NewSession() session.Session {
	sess := s.sessions.Create()
	s.logger.Info("session created", "session", sess.ID)
	return sess
}

func (s *Service) Get(id string) (session.Session, error) {
	return s.sessions.Get(id)
}

func (s *Service) Delete(id string) {
	s.sessions.Delete(id)
}

func (s *Service) SetViewport(id string, width, height int) (session.Session, error) {
	return s.capture.SetViewport(id, width, height)
}

func (s *Service) ToggleFacing(id string) (session.Session, error) {
	return s.capture.ToggleFacing(id)
}

// StartCapture takes the capture latch and runs the countdown and burst in
// the background.
func (s *Service) StartCapture(id string) (session.Session, error) {
	epoch, err := s.capture.Begin(id)
	if err != nil {
		return s.current(id), err
	}

	s.goJob(func(ctx context.Context) {
		err := s.capture.Run(ctx, id, epoch)
		s.metrics.Burst(err)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("capture failed", "session", id, "err", err)
		}
	})
	return s.sessions.Get(id)
}

func (s *Service) SelectPhoto(id string, index int) (session.Session, error) {
	return s.sessions.Update(id, func(sess *session.Session) error {
		return sess.SelectPhoto(index)
	})
}

func (s *Service) SelectTheme(id, themeID string) (session.Session, error) {
	th, err := theme.Selectable(themeID)
	if err != nil {
		return s.current(id), err
	}
	return s.sessions.Update(id, func(sess *session.Session) error {
		return sess.SetTheme(th.ID, th.Name)
	})
}

// Continue moves forward one step. Leaving the theme picker starts
// generation; leaving the preview is Approve.
func (s *Service) Continue(id string) (session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Session{}, err
	}
	switch sess.Step {
	case session.StepCapture:
		return s.goTo(id, session.StepCapture, session.StepSelect)
	case session.StepSelect:
		return s.goTo(id, session.StepSelect, session.StepTheme)
	case session.StepTheme:
		return s.StartGeneration(id)
	case session.StepPreview:
		return s.Approve(id)
	}
	return sess, fmt.Errorf("%w: continue from %s", session.ErrInvalidTransition, sess.Step)
}

// Back follows the back-edge of the current step.
func (s *Service) Back(id string) (session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Session{}, err
	}
	switch sess.Step {
	case session.StepSelect:
		return s.goTo(id, session.StepSelect, session.StepCapture)
	case session.StepTheme:
		return s.goTo(id, session.StepTheme, session.StepSelect)
	case session.StepPreview:
		return s.Retry(id)
	case session.StepForm:
		return s.sessions.Update(id, func(sess *session.Session) error {
			if sess.Submitting {
				return ErrAlreadyRunning
			}
			return sess.Goto(session.StepPreview)
		})
	}
	return sess, fmt.Errorf("%w: back from %s", session.ErrInvalidTransition, sess.Step)
}

func (s *Service) goTo(id string, from, to session.Step) (session.Session, error) {
	return s.sessions.Update(id, func(sess *session.Session) error {
		if sess.Step != from {
			return fmt.Errorf("%w: expected %s, at %s", session.ErrWrongStep, from, sess.Step)
		}
		if sess.Capturing {
			return capture.ErrCaptureInProgress
		}
		return sess.Goto(to)
	})
}

// StartGeneration enters the generate step and runs generation once for it.
func (s *Service) StartGeneration(id string) (session.Session, error) {
	var (
		epoch int
		photo session.Photo
		th    theme.Theme
	)
	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		if sess.Generating {
			return ErrAlreadyRunning
		}
		if err := sess.Goto(session.StepGenerate); err != nil {
			return err
		}
		picked, ok := sess.SelectedPhoto()
		if !ok {
			return session.ErrNoSelection
		}
		t, err := theme.Selectable(sess.ThemeID)
		if err != nil {
			return err
		}
		photo, th, epoch = picked, t, sess.Epoch
		sess.Generating = true
		sess.Progress = 0
		sess.Status = "Starting"
		return nil
	})
	if err != nil {
		return sess, err
	}

	s.goJob(func(ctx context.Context) {
		s.generate(ctx, id, epoch, photo.Image, th)
	})
	return sess, nil
}

func (s *Service) generate(ctx context.Context, id string, epoch int, photo media.Image, th theme.Theme) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	log := s.logger.With("session", id, "theme", th.ID)

	progress := func(percent int, status string) {
		_ = s.applyAt(id, epoch, session.StepGenerate, func(sess *session.Session) error {
			sess.Progress = percent
			sess.Status = status
			return nil
		})
	}

	res, err := s.generator.Generate(ctx, photo, th, progress)
	s.metrics.Generation(start, err)

	if err != nil {
		log.Error("generation failed", "err", err)
		msg := gemini.UserMessage(err)
		_ = s.applyAt(id, epoch, session.StepGenerate, func(sess *session.Session) error {
			sess.Generating = false
			if err := sess.Goto(session.StepTheme); err != nil {
				return err
			}
			sess.Error = msg
			return nil
		})
		return
	}

	log.Info("generation done", "watermarked", res.Watermarked, "dur_ms", time.Since(start).Milliseconds())
	_ = s.applyAt(id, epoch, session.StepGenerate, func(sess *session.Session) error {
		sess.Generating = false
		sess.Generated = res.Generated
		sess.Final = res.Final
		sess.Progress = 100
		return sess.Goto(session.StepPreview)
	})
}

func (s *Service) Approve(id string) (session.Session, error) {
	return s.goTo(id, session.StepPreview, session.StepForm)
}

// Retry discards the result and returns to the theme picker.
func (s *Service) Retry(id string) (session.Session, error) {
	return s.goTo(id, session.StepPreview, session.StepTheme)
}

// SubmitLead validates the form and starts the submission pipeline. Field
// problems come back as *ValidationError and leave the session untouched.
func (s *Service) SubmitLead(id string, form lead.Form) (session.Session, error) {
	if problems := lead.Validate(form); len(problems) > 0 {
		return s.current(id), &ValidationError{Fields: problems}
	}

	var (
		epoch int
		l     lead.Lead
		final media.Image
	)
	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		if sess.Step != session.StepForm {
			return fmt.Errorf("%w: submit in %s", session.ErrWrongStep, sess.Step)
		}
		if sess.Submitting {
			return ErrAlreadyRunning
		}
		if !sess.HasFinal() {
			return session.ErrNoFinalImage
		}
		built := lead.Build(form, sess.ThemeName, s.eventID, s.now())
		sess.Lead = &built
		sess.Submitting = true
		sess.Submission = nil
		sess.Error = ""
		epoch, l, final = sess.Epoch, built, sess.Final
		return nil
	})
	if err != nil {
		return sess, err
	}

	s.goJob(func(ctx context.Context) {
		s.submit(ctx, id, epoch, l, final)
	})
	return sess, nil
}

func (s *Service) submit(ctx context.Context, id string, epoch int, l lead.Lead, final media.Image) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	report, err := s.submitter.Submit(ctx, l, final)
	summary := &session.Submission{
		LeadID:      report.LeadID.String(),
		LeadSaved:   report.Succeeded(),
		DownloadURL: report.DownloadURL,
		GalleryURL:  report.GalleryURL,
		Outcomes:    report.Outcomes(),
	}
	if err != nil {
		s.logger.Error("submission failed", "session", id, "lead_id", l.ID, "err", err)
		summary.Error = submission.ErrLeadNotSaved.Error()
	}

	_ = s.applyAt(id, epoch, session.StepForm, func(sess *session.Session) error {
		sess.Submitting = false
		sess.Submission = summary
		if err != nil {
			// Stay on the form so the guest can try again.
			sess.Error = "Failed to save your information. Please try again."
			return nil
		}
		return sess.Goto(session.StepSuccess)
	})
}

// Reset starts the session over from capture. Work still in flight is
// discarded when it finishes.
func (s *Service) Reset(id string) (session.Session, error) {
	return s.sessions.Update(id, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

func (s *Service) Photo(id string, index int) (media.Image, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return media.Image{}, err
	}
	if index < 0 || index >= len(sess.Photos) {
		return media.Image{}, fmt.Errorf("%w: index %d", session.ErrPhotoNotInSession, index)
	}
	return sess.Photos[index].Image, nil
}

func (s *Service) Generated(id string) (media.Image, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return media.Image{}, err
	}
	if !sess.HasGenerated() {
		return media.Image{}, ErrNoImage
	}
	return sess.Generated, nil
}

func (s *Service) Final(id string) (media.Image, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return media.Image{}, err
	}
	if !sess.HasFinal() {
		return media.Image{}, ErrNoImage
	}
	return sess.Final, nil
}

// Run sweeps idle sessions until ctx is done, then cancels and waits for
// in-flight jobs.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Service) Sweep() int {
	n := s.sessions.Sweep(s.sessionIdle)
	s.metrics.Swept(n)
	if n > 0 {
		s.logger.Info("idle sessions swept", "count", n)
	}
	return n
}

// Wait blocks until every background job has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) goJob(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}
		defer func() { <-s.sem }()

		fn(s.ctx)
	}()
}

// applyAt writes to the session only while it is still on epoch and step.
func (s *Service) applyAt(id string, epoch int, step session.Step, fn func(*session.Session) error) error {
	_, err := s.sessions.Update(id, func(sess *session.Session) error {
		if sess.Epoch != epoch || sess.Step != step {
			return errStale
		}
		return fn(sess)
	})
	if errors.Is(err, errStale) {
		s.logger.Debug("stale result dropped", "session", id, "step", step)
	}
	return err
}

var errStale = errors.New("session moved on")

func (s *Service) current(id string) session.Session {
	sess, _ := s.sessions.Get(id)
	return sess
}
