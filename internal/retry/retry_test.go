package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	mu    sync.Mutex
	c     chan time.Time
	waits []time.Duration
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (f *fakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.mu.Unlock()
	f.c <- time.Now()
}

func (f *fakeTimer) Stop() {}

func (f *fakeTimer) C() <-chan time.Time { return f.c }

func (f *fakeTimer) total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum time.Duration
	for _, w := range f.waits {
		sum += w
	}
	return sum
}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	timer := newFakeTimer()
	p := New(Options{Timer: timer})

	calls := 0
	err := p.Do(context.Background(), "insert lead", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.waits)
	assert.Equal(t, 3000*time.Millisecond, timer.total())
}

func TestDoClientErrorFailsImmediately(t *testing.T) {
	timer := newFakeTimer()
	p := New(Options{Timer: timer})

	calls := 0
	err := p.Do(context.Background(), "insert lead", func(ctx context.Context) error {
		calls++
		return statusErr(400)
	})

	require.Error(t, err)
	assert.Equal(t, statusErr(400), err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, timer.total())
}

func TestDoGivesUpAfterBudget(t *testing.T) {
	timer := newFakeTimer()
	p := New(Options{Timer: timer})

	calls := 0
	err := p.Do(context.Background(), "upload", func(ctx context.Context) error {
		calls++
		return MarkTransient(errors.New("flaky"))
	})

	require.Error(t, err)
	assert.Equal(t, "flaky", err.Error())
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3*time.Second, timer.total())
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Options{Timer: newFakeTimer()})
	calls := 0
	err := p.Do(ctx, "upload", func(ctx context.Context) error {
		calls++
		return statusErr(500)
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", statusErr(502), true},
		{"client error", statusErr(404), false},
		{"wrapped server error", fmt.Errorf("insert: %w", statusErr(500)), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"eof", io.ErrUnexpectedEOF, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"marked", MarkTransient(errors.New("locked")), true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
