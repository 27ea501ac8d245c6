package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"dreamsnap-booth/internal/storage"
)

const channelPrefix = storage.GalleryTable + ":"

// Client wraps the Redis connection shared by the feed and diagnostics.
type Client struct {
	*redis.Client
}

func NewClient(addr, password string, db int) *Client {
	return &Client{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RedisBroker publishes gallery inserts on "gallery_photos:<event id>" so
// every kiosk and wall display attached to the same Redis sees them.
type RedisBroker struct {
	client *Client
	logger *slog.Logger
}

func NewRedisBroker(client *Client, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisBroker{client: client, logger: logger}
}

func Channel(eventID string) string {
	return channelPrefix + eventID
}

func (b *RedisBroker) Publish(ctx context.Context, p storage.GalleryPhoto) error {
	const op = "feed.RedisBroker.Publish"

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := b.client.Publish(ctx, Channel(p.EventID), payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, eventID string) (<-chan storage.GalleryPhoto, error) {
	const op = "feed.RedisBroker.Subscribe"

	var ps *redis.PubSub
	if eventID == "" {
		ps = b.client.PSubscribe(ctx, channelPrefix+"*")
	} else {
		ps = b.client.Subscribe(ctx, Channel(eventID))
	}
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan storage.GalleryPhoto, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				p, err := decodePhoto(msg.Payload)
				if err != nil {
					b.logger.Warn("bad gallery feed payload", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodePhoto(payload string) (storage.GalleryPhoto, error) {
	var p storage.GalleryPhoto
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return storage.GalleryPhoto{}, err
	}
	if err := storage.ValidateGalleryPhoto(p); err != nil {
		return storage.GalleryPhoto{}, err
	}
	return p, nil
}
