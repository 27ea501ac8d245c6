package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/storage"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    full_name TEXT NOT NULL,
    instagram_handle_1 TEXT,
    instagram_handle_2 TEXT,
    phone_number TEXT NOT NULL,
    country_code TEXT NOT NULL DEFAULT '+1',
    consent_given BOOLEAN NOT NULL DEFAULT FALSE,
    event_id TEXT,
    theme_selected TEXT NOT NULL,
    would_pay_for_product BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_event_id ON leads(event_id);

CREATE TABLE IF NOT EXISTS gallery_photos (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    image_url TEXT NOT NULL,
    caption TEXT,
    full_name TEXT NOT NULL,
    theme_selected TEXT NOT NULL,
    event_id TEXT NOT NULL DEFAULT 'default_event'
);
CREATE INDEX IF NOT EXISTS idx_gallery_photos_created_at ON gallery_photos(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_gallery_photos_event_id ON gallery_photos(event_id);
`

type Storage struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func New(ctx context.Context, databaseURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Migrate creates the tables if they are missing.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.postgres.Ping"

	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

func (s *Storage) InsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	const op = "storage.postgres.InsertLead"

	if err := storage.ValidateLead(l); err != nil {
		return lead.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.sb.Insert(storage.LeadsTable).
		Columns(
			"id",
			"created_at",
			"full_name",
			"instagram_handle_1",
			"instagram_handle_2",
			"phone_number",
			"country_code",
			"consent_given",
			"event_id",
			"theme_selected",
			"would_pay_for_product",
		).
		Values(
			l.ID.String(),
			l.CreatedAt,
			l.FullName,
			nullable(l.InstagramHandle1),
			nullable(l.InstagramHandle2),
			l.PhoneNumber,
			l.CountryCode,
			l.ConsentGiven,
			l.EventID,
			l.ThemeSelected,
			wouldPay(l.WouldPayForProduct),
		).
		ToSql()
	if err != nil {
		return lead.Lead{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return l, nil
		}
		return lead.Lead{}, fmt.Errorf("%s: %w", op, classify(err))
	}
	return l, nil
}

func (s *Storage) CountLeads(ctx context.Context, eventID string) (int, error) {
	const op = "storage.postgres.CountLeads"

	builder := s.sb.Select("COUNT(*)").From(storage.LeadsTable)
	if eventID != "" {
		builder = builder.Where(sq.Eq{"event_id": eventID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var n int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, classify(err))
	}
	return n, nil
}

func (s *Storage) InsertGalleryPhoto(ctx context.Context, p storage.GalleryPhoto) (storage.GalleryPhoto, error) {
	const op = "storage.postgres.InsertGalleryPhoto"

	if err := storage.ValidateGalleryPhoto(p); err != nil {
		return storage.GalleryPhoto{}, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.sb.Insert(storage.GalleryTable).
		Columns("id", "created_at", "image_url", "caption", "full_name", "theme_selected", "event_id").
		Values(p.ID.String(), p.CreatedAt, p.ImageURL, nullable(p.Caption), p.FullName, p.ThemeSelected, p.EventID).
		ToSql()
	if err != nil {
		return storage.GalleryPhoto{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return p, nil
		}
		return storage.GalleryPhoto{}, fmt.Errorf("%s: %w", op, classify(err))
	}
	return p, nil
}

func (s *Storage) ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error) {
	const op = "storage.postgres.ListGalleryPhotos"

	builder := s.sb.Select("id::text", "created_at", "image_url", "COALESCE(caption, '')", "full_name", "theme_selected", "event_id").
		From(storage.GalleryTable).
		OrderBy("created_at DESC").
		Limit(storage.Limit(limit))
	if eventID != "" {
		builder = builder.Where(sq.Eq{"event_id": eventID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	photos, err := scanPhotos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return photos, nil
}

func scanPhotos(rows pgx.Rows) ([]storage.GalleryPhoto, error) {
	photos := make([]storage.GalleryPhoto, 0)
	for rows.Next() {
		var (
			p  storage.GalleryPhoto
			id string
		)
		if err := rows.Scan(&id, &p.CreatedAt, &p.ImageURL, &p.Caption, &p.FullName, &p.ThemeSelected, &p.EventID); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		p.ID = parsed
		photos = append(photos, p)
	}
	return photos, classify(rows.Err())
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// classify marks errors that are worth retrying: connection loss before the
// statement reached the server, timeouts, and server-side transient classes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return retry.MarkTransient(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "40001",               // serialization failure
			pgErr.Code == "40P01",               // deadlock
			pgErr.Code == "57P01":               // admin shutdown
			return retry.MarkTransient(err)
		}
	}
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func wouldPay(v *bool) bool {
	return v != nil && *v
}
