package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamsnap-booth/internal/storage"
)

func photo(eventID string) storage.GalleryPhoto {
	return storage.GalleryPhoto{
		ID:            uuid.New(),
		CreatedAt:     time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
		ImageURL:      "http://kiosk/media/gallery-photos/a.jpg",
		FullName:      "Ana",
		ThemeSelected: "Halloween",
		EventID:       eventID,
	}
}

func TestMemoryBrokerFiltersByEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker(nil)
	expo, err := b.Subscribe(ctx, "expo")
	require.NoError(t, err)
	all, err := b.Subscribe(ctx, "")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, photo("wedding")))
	p := photo("expo")
	require.NoError(t, b.Publish(ctx, p))

	select {
	case got := <-expo:
		assert.Equal(t, p.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no photo for expo")
	}
	assert.Len(t, all, 2)

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-expo
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRedisBrokerPublish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := NewRedisBroker(&Client{Client: db}, nil)

	p := photo("expo")
	payload, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectPublish("gallery_photos:expo", payload).SetVal(2)
	require.NoError(t, b.Publish(context.Background(), p))

	mock.ExpectPublish("gallery_photos:expo", payload).SetErr(redis.ErrClosed)
	assert.ErrorIs(t, b.Publish(context.Background(), p), redis.ErrClosed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := &Client{Client: db}

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, c.HealthCheck(context.Background()))

	mock.ExpectPing().SetErr(redis.ErrClosed)
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestDecodePhotoRejectsPartial(t *testing.T) {
	_, err := decodePhoto(`{"id":"` + uuid.NewString() + `"}`)
	assert.ErrorIs(t, err, storage.ErrInvalidRecord)

	_, err = decodePhoto("not json")
	assert.Error(t, err)
}

func TestHubPushesToEventScreens(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go func() { _ = hub.Run(ctx) }()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(ctx, conn, r.URL.Query().Get("event_id"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?event_id=expo"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients("expo") == 1 }, time.Second, 10*time.Millisecond)

	hub.PhotoAdded(photo("wedding"))
	p := photo("expo")
	hub.PhotoAdded(p)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgPhotoNew, msg.Type)
	assert.Equal(t, "expo", msg.EventID)
	require.NotNil(t, msg.Photo)
	assert.Equal(t, p.ID, msg.Photo.ID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients("expo") == 0 }, 2*time.Second, 10*time.Millisecond)
}
