package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultAttempts     = 3
	DefaultInitialDelay = time.Second
)

// Timer lets tests replace real sleeping. It matches backoff.Timer.
type Timer = backoff.Timer

type Options struct {
	Attempts     int
	InitialDelay time.Duration
	Timer        Timer
	Logger       *slog.Logger
}

// Policy retries transient failures with exponential backoff and no jitter:
// with the defaults the waits are 1s then 2s.
type Policy struct {
	attempts     int
	initialDelay time.Duration
	timer        Timer
	logger       *slog.Logger
}

func New(opts Options) *Policy {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	delay := opts.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Policy{
		attempts:     attempts,
		initialDelay: delay,
		timer:        opts.Timer,
		logger:       logger,
	}
}

// Do runs fn until it succeeds, returns a non-transient error, or the attempt
// budget is spent. The last error is returned unwrapped.
func (p *Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = p.initialDelay << uint(p.attempts)
	eb.MaxElapsedTime = 0
	eb.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.attempts-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("retrying", "op", name, "attempt", attempt, "wait_ms", wait.Milliseconds(), "err", err)
	}

	err := backoff.RetryNotifyWithTimer(op, b, notify, p.timer)
	if err != nil {
		p.logger.Error("giving up", "op", name, "attempts", attempt, "err", err)
	}
	return err
}

// StatusCoder is implemented by errors that carry an HTTP-like status.
type StatusCoder interface {
	StatusCode() int
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient flags err as worth retrying.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is worth another attempt. Client errors
// (4xx) and unclassified failures are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var marked *transientError
	if errors.As(err, &marked) {
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		code := coder.StatusCode()
		return code >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
