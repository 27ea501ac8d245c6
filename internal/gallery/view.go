package gallery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"dreamsnap-booth/internal/feed"
	"dreamsnap-booth/internal/storage"
)

const (
	HighlightFor    = 3 * time.Second
	RefreshInterval = 15 * time.Minute

	resubscribeDelay   = time.Second
	maxResubscribeWait = 30 * time.Second
)

// Lister is the read side of the record store.
type Lister interface {
	ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error)
}

// Listener is told about every photo the view prepends.
type Listener func(storage.GalleryPhoto)

// Item is a gallery entry as displayed.
type Item struct {
	storage.GalleryPhoto
	New bool `json:"isNew"`
}

type Options struct {
	EventID          string
	Store            Lister
	Broker           feed.Broker
	RefreshInterval  time.Duration
	// ResubscribeDelay is the first wait after a failed or dropped feed
	// subscription. Later waits grow up to 30s.
	ResubscribeDelay time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
}

// View is the live, newest-first photo wall for one event.
type View struct {
	eventID  string
	store    Lister
	broker   feed.Broker
	interval time.Duration
	retry    time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.RWMutex
	photos    []storage.GalleryPhoto
	seen      map[uuid.UUID]bool
	arrived   map[uuid.UUID]time.Time
	loaded    bool
	listeners []Listener
}

func NewView(opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = RefreshInterval
	}
	retry := opts.ResubscribeDelay
	if retry <= 0 {
		retry = resubscribeDelay
	}
	return &View{
		eventID:  opts.EventID,
		store:    opts.Store,
		broker:   opts.Broker,
		interval: interval,
		retry:    retry,
		now:      now,
		logger:   logger.With("event_id", opts.EventID),
		seen:     make(map[uuid.UUID]bool),
		arrived:  make(map[uuid.UUID]time.Time),
	}
}

func (v *View) EventID() string { return v.eventID }

// OnInsert registers l for photos that arrive through the live feed.
func (v *View) OnInsert(l Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, l)
}

// Refresh replaces the list with what the store holds. Highlights on photos
// that are still listed survive the refresh.
func (v *View) Refresh(ctx context.Context) error {
	photos, err := v.store.ListGalleryPhotos(ctx, v.eventID, 0)
	if err != nil {
		return err
	}

	seen := make(map[uuid.UUID]bool, len(photos))
	for _, p := range photos {
		seen[p.ID] = true
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Live arrivals the store listing does not show yet stay on top.
	var pending []storage.GalleryPhoto
	for _, p := range v.photos {
		if _, live := v.arrived[p.ID]; live && !seen[p.ID] {
			pending = append(pending, p)
			seen[p.ID] = true
		}
	}
	v.photos = append(pending, photos...)
	v.seen = seen
	for id := range v.arrived {
		if !seen[id] {
			delete(v.arrived, id)
		}
	}
	v.loaded = true
	return nil
}

// Add prepends p if it belongs to this event and is not already shown.
// It reports whether the list changed.
func (v *View) Add(p storage.GalleryPhoto) bool {
	if p.EventID != v.eventID {
		return false
	}

	v.mu.Lock()
	if v.seen[p.ID] {
		v.mu.Unlock()
		return false
	}
	v.seen[p.ID] = true
	v.arrived[p.ID] = v.now()
	v.photos = append([]storage.GalleryPhoto{p}, v.photos...)
	listeners := append([]Listener(nil), v.listeners...)
	v.mu.Unlock()

	for _, l := range listeners {
		l(p)
	}
	return true
}

// Snapshot returns the list as of now, flagging photos that arrived within
// the highlight window.
func (v *View) Snapshot(now time.Time) []Item {
	v.mu.RLock()
	defer v.mu.RUnlock()

	items := make([]Item, len(v.photos))
	for i, p := range v.photos {
		at, ok := v.arrived[p.ID]
		items[i] = Item{GalleryPhoto: p, New: ok && now.Sub(at) < HighlightFor}
	}
	return items
}

func (v *View) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

type subscription struct {
	updates  <-chan storage.GalleryPhoto
	attempts int
}

// subscribe keeps trying the broker until it accepts or ctx is done.
func (v *View) subscribe(ctx context.Context) (subscription, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = v.retry
	eb.MaxInterval = maxResubscribeWait
	eb.MaxElapsedTime = 0
	eb.Reset()

	attempts := 0
	ch, err := backoff.RetryNotifyWithData(func() (<-chan storage.GalleryPhoto, error) {
		attempts++
		return v.broker.Subscribe(ctx, v.eventID)
	}, backoff.WithContext(eb, ctx), func(err error, wait time.Duration) {
		v.logger.Warn("gallery subscription failed, retrying", "attempt", attempts, "wait_ms", wait.Milliseconds(), "err", err)
	})
	return subscription{updates: ch, attempts: attempts}, err
}

// Run loads the wall, then follows the live feed and refreshes on a timer
// until ctx is done. A failed or dropped subscription is retried with
// backoff, and the wall is reloaded once it is back.
func (v *View) Run(ctx context.Context) error {
	if err := v.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		v.logger.Error("gallery load failed", "err", err)
	}

	subscribed := make(chan subscription, 1)
	follow := func() {
		go func() {
			sub, err := v.subscribe(ctx)
			if err != nil {
				return
			}
			subscribed <- sub
		}()
	}

	var (
		updates <-chan storage.GalleryPhoto
		dropped bool
	)
	if v.broker != nil {
		follow()
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sub := <-subscribed:
			updates = sub.updates
			if dropped || sub.attempts > 1 {
				v.logger.Info("gallery subscription restored", "attempts", sub.attempts)
				if err := v.Refresh(ctx); err != nil {
					v.logger.Warn("gallery refresh failed", "err", err)
				}
			}
			dropped = false
		case p, ok := <-updates:
			if !ok {
				updates = nil
				if ctx.Err() != nil {
					return nil
				}
				v.logger.Warn("gallery subscription closed, resubscribing")
				dropped = true
				follow()
				continue
			}
			if v.Add(p) {
				v.logger.Info("gallery photo added", "photo_id", p.ID)
			}
		case <-ticker.C:
			if err := v.Refresh(ctx); err != nil {
				v.logger.Warn("gallery refresh failed", "err", err)
			}
		}
	}
}
