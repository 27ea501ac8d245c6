package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dreamsnap-booth/internal/feed"
)

var (
	ErrNotRunning   = errors.New("gallery manager not running")
	ErrUnknownEvent = errors.New("gallery event not served")
)

// Manager keeps one live View per served event. Only events named in
// ManagerOptions.Events or passed to Run get a view.
type Manager struct {
	store    Lister
	broker   feed.Broker
	interval time.Duration
	retry    time.Duration
	now      func() time.Time
	logger   *slog.Logger
	listener Listener

	mu      sync.Mutex
	ctx     context.Context
	wg      sync.WaitGroup
	allowed map[string]bool
	views   map[string]*View
}

type ManagerOptions struct {
	Store            Lister
	Broker           feed.Broker
	Events           []string
	RefreshInterval  time.Duration
	ResubscribeDelay time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
	// OnInsert is attached to every view the manager creates.
	OnInsert         Listener
}

func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		store:    opts.Store,
		broker:   opts.Broker,
		interval: opts.RefreshInterval,
		retry:    opts.ResubscribeDelay,
		now:      opts.Now,
		logger:   logger,
		listener: opts.OnInsert,
		allowed:  make(map[string]bool),
		views:    make(map[string]*View),
	}
	m.allow(opts.Events...)
	return m
}

func (m *Manager) allow(eventIDs ...string) {
	for _, id := range eventIDs {
		if id = strings.TrimSpace(id); id != "" {
			m.allowed[id] = true
		}
	}
}

// Run adds eventIDs to the served events, starts their views and serves
// the rest lazily until ctx is done.
func (m *Manager) Run(ctx context.Context, eventIDs ...string) error {
	m.mu.Lock()
	m.ctx = ctx
	m.allow(eventIDs...)
	m.mu.Unlock()

	for _, id := range eventIDs {
		if _, err := m.View(id); err != nil {
			return err
		}
	}

	<-ctx.Done()

	m.mu.Lock()
	m.ctx = nil
	m.mu.Unlock()
	m.wg.Wait()
	return nil
}

// View returns the live view for eventID, starting it on first use.
func (m *Manager) View(eventID string) (*View, error) {
	eventID = strings.TrimSpace(eventID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.views[eventID]; ok {
		return v, nil
	}
	if m.ctx == nil {
		return nil, ErrNotRunning
	}
	if !m.allowed[eventID] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventID)
	}

	v := NewView(Options{
		EventID:          eventID,
		Store:            m.store,
		Broker:           m.broker,
		RefreshInterval:  m.interval,
		ResubscribeDelay: m.retry,
		Now:              m.now,
		Logger:           m.logger,
	})
	if m.listener != nil {
		v.OnInsert(m.listener)
	}
	m.views[eventID] = v

	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = v.Run(ctx)
	}()
	return v, nil
}
