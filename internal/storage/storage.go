package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dreamsnap-booth/internal/lead"
)

const (
	LeadsTable   = "leads"
	GalleryTable = "gallery_photos"

	// DefaultListLimit caps a gallery listing when the caller passes 0.
	DefaultListLimit = 500
)

var ErrInvalidRecord = errors.New("invalid record")

// GalleryPhoto is one published portrait on the live wall.
type GalleryPhoto struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ImageURL      string    `json:"image_url"`
	Caption       string    `json:"caption,omitempty"`
	FullName      string    `json:"full_name"`
	ThemeSelected string    `json:"theme_selected"`
	EventID       string    `json:"event_id"`
}

type LeadStore interface {
	// InsertLead stores l. Inserting the same ID twice is not an error, so
	// a retried insert that already landed is reported as success.
	InsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error)
}

type GalleryStore interface {
	InsertGalleryPhoto(ctx context.Context, p GalleryPhoto) (GalleryPhoto, error)
	// ListGalleryPhotos returns newest first. An empty eventID lists every
	// event.
	ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]GalleryPhoto, error)
}

// Store is the record store the booth writes leads and gallery entries to.
type Store interface {
	LeadStore
	GalleryStore
	CountLeads(ctx context.Context, eventID string) (int, error)
	Ping(ctx context.Context) error
	Close()
}

// ValidateLead rejects records the schema would refuse anyway.
func ValidateLead(l lead.Lead) error {
	if l.ID == uuid.Nil || l.FullName == "" || l.PhoneNumber == "" || l.ThemeSelected == "" {
		return ErrInvalidRecord
	}
	return nil
}

func ValidateGalleryPhoto(p GalleryPhoto) error {
	if p.ID == uuid.Nil || p.ImageURL == "" || p.FullName == "" || p.ThemeSelected == "" || p.EventID == "" {
		return ErrInvalidRecord
	}
	return nil
}

func Limit(n int) uint64 {
	if n <= 0 || n > DefaultListLimit {
		return DefaultListLimit
	}
	return uint64(n)
}
