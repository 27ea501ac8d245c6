package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dreamsnap-booth/internal/feed"
	"dreamsnap-booth/internal/storage"
)

type MockLister struct{ mock.Mock }

func (m *MockLister) ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error) {
	args := m.Called(ctx, eventID, limit)
	photos, _ := args.Get(0).([]storage.GalleryPhoto)
	return photos, args.Error(1)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func galleryPhoto(eventID string, minute int) storage.GalleryPhoto {
	return storage.GalleryPhoto{
		ID:            uuid.New(),
		CreatedAt:     time.Date(2026, 5, 1, 18, minute, 0, 0, time.UTC),
		ImageURL:      "http://kiosk/media/gallery-photos/x.jpg",
		FullName:      "Guest",
		ThemeSelected: "Halloween",
		EventID:       eventID,
	}
}

func ids(items []Item) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRefreshEmptyIsFine(t *testing.T) {
	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{}, nil)

	v := NewView(Options{EventID: "expo", Store: store})
	require.NoError(t, v.Refresh(context.Background()))
	assert.True(t, v.Loaded())
	assert.Empty(t, v.Snapshot(time.Now()))
}

func TestAddPrependsDedupesAndHighlights(t *testing.T) {
	older := galleryPhoto("expo", 1)
	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{older}, nil)

	clk := &clock{t: time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)}
	v := NewView(Options{EventID: "expo", Store: store, Now: clk.Now})
	require.NoError(t, v.Refresh(context.Background()))

	var notified []uuid.UUID
	v.OnInsert(func(p storage.GalleryPhoto) { notified = append(notified, p.ID) })

	fresh := galleryPhoto("expo", 2)
	assert.True(t, v.Add(fresh))
	assert.False(t, v.Add(fresh), "duplicate delivery is ignored")
	assert.False(t, v.Add(older), "already listed")
	assert.False(t, v.Add(galleryPhoto("wedding", 3)), "other event")

	snap := v.Snapshot(clk.Now())
	assert.Equal(t, []uuid.UUID{fresh.ID, older.ID}, ids(snap))
	assert.True(t, snap[0].New)
	assert.False(t, snap[1].New)
	assert.Equal(t, []uuid.UUID{fresh.ID}, notified)

	clk.Advance(HighlightFor)
	assert.False(t, v.Snapshot(clk.Now())[0].New)
}

func TestRefreshKeepsUnlistedLiveArrivals(t *testing.T) {
	listed := galleryPhoto("expo", 1)
	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{listed}, nil)

	v := NewView(Options{EventID: "expo", Store: store})
	live := galleryPhoto("expo", 5)
	require.True(t, v.Add(live))
	require.NoError(t, v.Refresh(context.Background()))

	assert.Equal(t, []uuid.UUID{live.ID, listed.ID}, ids(v.Snapshot(time.Now())))
}

func TestRefreshError(t *testing.T) {
	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return(nil, errors.New("db down"))

	v := NewView(Options{EventID: "expo", Store: store})
	assert.Error(t, v.Refresh(context.Background()))
	assert.False(t, v.Loaded())
}

func TestRunFollowsBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{}, nil)
	broker := feed.NewMemoryBroker(nil)

	added := make(chan storage.GalleryPhoto, 1)
	m := NewManager(ManagerOptions{
		Store:    store,
		Broker:   broker,
		OnInsert: func(p storage.GalleryPhoto) { added <- p },
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, "expo") }()

	var v *View
	require.Eventually(t, func() bool {
		var err error
		v, err = m.View("expo")
		return err == nil && v.Loaded()
	}, time.Second, 10*time.Millisecond)

	p := galleryPhoto("expo", 9)
	require.Eventually(t, func() bool {
		_ = broker.Publish(ctx, p)
		select {
		case got := <-added:
			return got.ID == p.ID
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	assert.Equal(t, p.ID, v.Snapshot(time.Now())[0].ID)

	cancel()
	require.NoError(t, <-done)
}

func TestManagerNotRunning(t *testing.T) {
	_, err := NewManager(ManagerOptions{}).View("expo")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestManagerRejectsUnknownEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, mock.Anything, 0).Return([]storage.GalleryPhoto{}, nil)
	m := NewManager(ManagerOptions{Store: store, Events: []string{"wall"}})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, "expo") }()
	require.Eventually(t, func() bool {
		_, err := m.View("expo")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	for i := 0; i < 50; i++ {
		_, err := m.View(fmt.Sprintf("junk-%d", i))
		require.ErrorIs(t, err, ErrUnknownEvent)
	}
	_, err := m.View(" wall ")
	require.NoError(t, err)

	m.mu.Lock()
	assert.Len(t, m.views, 2)
	m.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

// flakyBroker refuses the first few subscriptions. With dropFirst the first
// channel it hands out is already closed.
type flakyBroker struct {
	*feed.MemoryBroker

	mu        sync.Mutex
	calls     int
	failures  int
	dropFirst bool
}

func (b *flakyBroker) Subscribe(ctx context.Context, eventID string) (<-chan storage.GalleryPhoto, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()

	if call <= b.failures {
		return nil, errors.New("redis: connection refused")
	}
	if b.dropFirst && call == b.failures+1 {
		ch := make(chan storage.GalleryPhoto)
		close(ch)
		return ch, nil
	}
	return b.MemoryBroker.Subscribe(ctx, eventID)
}

func (b *flakyBroker) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func followUntilShown(t *testing.T, ctx context.Context, broker feed.Broker, v *View, p storage.GalleryPhoto) {
	t.Helper()
	require.Eventually(t, func() bool {
		_ = broker.Publish(ctx, p)
		snap := v.Snapshot(time.Now())
		return len(snap) > 0 && snap[0].ID == p.ID
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRunRetriesFailedSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{}, nil)
	broker := &flakyBroker{MemoryBroker: feed.NewMemoryBroker(nil), failures: 2}

	v := NewView(Options{EventID: "expo", Store: store, Broker: broker, ResubscribeDelay: 5 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	followUntilShown(t, ctx, broker, v, galleryPhoto("expo", 7))
	assert.Equal(t, 3, broker.Calls())

	cancel()
	require.NoError(t, <-done)
}

func TestRunResubscribesWhenFeedCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := new(MockLister)
	store.On("ListGalleryPhotos", mock.Anything, "expo", 0).Return([]storage.GalleryPhoto{}, nil)
	broker := &flakyBroker{MemoryBroker: feed.NewMemoryBroker(nil), dropFirst: true}

	v := NewView(Options{EventID: "expo", Store: store, Broker: broker, ResubscribeDelay: 5 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	followUntilShown(t, ctx, broker, v, galleryPhoto("expo", 8))
	assert.Equal(t, 2, broker.Calls())

	cancel()
	require.NoError(t, <-done)
}
