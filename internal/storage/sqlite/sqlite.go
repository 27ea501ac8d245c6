package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	full_name TEXT NOT NULL,
	instagram_handle_1 TEXT,
	instagram_handle_2 TEXT,
	phone_number TEXT NOT NULL,
	country_code TEXT NOT NULL DEFAULT '+1',
	consent_given BOOLEAN NOT NULL DEFAULT 0,
	event_id TEXT,
	theme_selected TEXT NOT NULL,
	would_pay_for_product BOOLEAN DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_event_id ON leads(event_id);

CREATE TABLE IF NOT EXISTS gallery_photos (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	image_url TEXT NOT NULL,
	caption TEXT,
	full_name TEXT NOT NULL,
	theme_selected TEXT NOT NULL,
	event_id TEXT NOT NULL DEFAULT 'default_event'
);
CREATE INDEX IF NOT EXISTS idx_gallery_photos_created_at ON gallery_photos(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_gallery_photos_event_id ON gallery_photos(event_id);
`

// Storage is the single-kiosk fallback used when no Postgres URL is set.
type Storage struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func New(path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to enable WAL mode: %w", op, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: create tables: %w", op, err)
	}

	return &Storage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db),
	}, nil
}

func (s *Storage) Close() {
	_ = s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.sqlite.Ping"

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

func (s *Storage) InsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	const op = "storage.sqlite.InsertLead"

	if err := storage.ValidateLead(l); err != nil {
		return lead.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	wouldPay := l.WouldPayForProduct != nil && *l.WouldPayForProduct
	_, err := s.sb.Insert(storage.LeadsTable).
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
			l.CreatedAt.UTC(),
			l.FullName,
			nullString(l.InstagramHandle1),
			nullString(l.InstagramHandle2),
			l.PhoneNumber,
			l.CountryCode,
			l.ConsentGiven,
			l.EventID,
			l.ThemeSelected,
			wouldPay,
		).
		ExecContext(ctx)
	if err != nil {
		if isPrimaryKeyConflict(err) {
			return l, nil
		}
		return lead.Lead{}, fmt.Errorf("%s: %w", op, classify(err))
	}
	return l, nil
}

func (s *Storage) CountLeads(ctx context.Context, eventID string) (int, error) {
	const op = "storage.sqlite.CountLeads"

	builder := s.sb.Select("COUNT(*)").From(storage.LeadsTable)
	if eventID != "" {
		builder = builder.Where(sq.Eq{"event_id": eventID})
	}

	var n int
	if err := builder.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, classify(err))
	}
	return n, nil
}

func (s *Storage) InsertGalleryPhoto(ctx context.Context, p storage.GalleryPhoto) (storage.GalleryPhoto, error) {
	const op = "storage.sqlite.InsertGalleryPhoto"

	if err := storage.ValidateGalleryPhoto(p); err != nil {
		return storage.GalleryPhoto{}, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.sb.Insert(storage.GalleryTable).
		Columns("id", "created_at", "image_url", "caption", "full_name", "theme_selected", "event_id").
		Values(p.ID.String(), p.CreatedAt.UTC(), p.ImageURL, nullString(p.Caption), p.FullName, p.ThemeSelected, p.EventID).
		ExecContext(ctx)
	if err != nil {
		if isPrimaryKeyConflict(err) {
			return p, nil
		}
		return storage.GalleryPhoto{}, fmt.Errorf("%s: %w", op, classify(err))
	}
	return p, nil
}

func (s *Storage) ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error) {
	const op = "storage.sqlite.ListGalleryPhotos"

	builder := s.sb.Select("id", "created_at", "image_url", "COALESCE(caption, '')", "full_name", "theme_selected", "event_id").
		From(storage.GalleryTable).
		OrderBy("created_at DESC").
		Limit(storage.Limit(limit))
	if eventID != "" {
		builder = builder.Where(sq.Eq{"event_id": eventID})
	}

	rows, err := builder.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	photos := make([]storage.GalleryPhoto, 0)
	for rows.Next() {
		var (
			p  storage.GalleryPhoto
			id string
		)
		if err := rows.Scan(&id, &p.CreatedAt, &p.ImageURL, &p.Caption, &p.FullName, &p.ThemeSelected, &p.EventID); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%s: bad id %q: %w", op, id, err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return photos, nil
}

func isPrimaryKeyConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// classify marks lock contention as transient; another writer will finish.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return retry.MarkTransient(err)
	}
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
