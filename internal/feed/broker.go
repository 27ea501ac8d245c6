package feed

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"dreamsnap-booth/internal/storage"
)

const subscriberBuffer = 16

// Broker fans newly published gallery photos out to live viewers.
type Broker interface {
	Publish(ctx context.Context, p storage.GalleryPhoto) error
	// Subscribe delivers photos for eventID (every event when empty) until
	// ctx is done, then closes the channel.
	Subscribe(ctx context.Context, eventID string) (<-chan storage.GalleryPhoto, error)
}

// MemoryBroker is the in-process broker used when Redis is not configured.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[chan storage.GalleryPhoto]string
	logger *slog.Logger
}

func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MemoryBroker{
		subs:   make(map[chan storage.GalleryPhoto]string),
		logger: logger,
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, p storage.GalleryPhoto) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, eventID := range b.subs {
		if eventID != "" && eventID != p.EventID {
			continue
		}
		select {
		case ch <- p:
		default:
			b.logger.Warn("gallery subscriber lagging, dropping photo", "event_id", p.EventID, "photo_id", p.ID)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, eventID string) (<-chan storage.GalleryPhoto, error) {
	ch := make(chan storage.GalleryPhoto, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = eventID
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
