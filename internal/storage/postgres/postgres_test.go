package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/storage"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	tests := []struct {
		code      string
		transient bool
	}{
		{"08006", true},
		{"53300", true},
		{"40001", true},
		{"57P01", true},
		{"23502", false},
		{"42P01", false},
	}
	for _, tt := range tests {
		err := classify(&pgconn.PgError{Code: tt.code})
		assert.Equal(t, tt.transient, retry.IsTransient(err), tt.code)
	}

	assert.False(t, retry.IsTransient(classify(errors.New("syntax"))))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
}

// Runs against a real server when BOOTH_TEST_DATABASE_URL is set.
func TestStorage(t *testing.T) {
	url := os.Getenv("BOOTH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BOOTH_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := New(ctx, url)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))

	eventID := "test-" + uuid.NewString()

	t.Run("lead insert is idempotent", func(t *testing.T) {
		l := lead.Lead{
			ID:            uuid.New(),
			FullName:      gofakeit.Name(),
			PhoneNumber:   "5551234567",
			CountryCode:   "+1",
			ConsentGiven:  true,
			ThemeSelected: "Beach Wedding",
			EventID:       eventID,
			CreatedAt:     time.Now().UTC(),
		}
		_, err := s.InsertLead(ctx, l)
		require.NoError(t, err)
		_, err = s.InsertLead(ctx, l)
		require.NoError(t, err)

		n, err := s.CountLeads(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("gallery newest first", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Millisecond)
		for i := 0; i < 3; i++ {
			_, err := s.InsertGalleryPhoto(ctx, storage.GalleryPhoto{
				ID:            uuid.New(),
				CreatedAt:     base.Add(time.Duration(i) * time.Second),
				ImageURL:      gofakeit.URL(),
				FullName:      gofakeit.Name(),
				ThemeSelected: "Halloween",
				EventID:       eventID,
			})
			require.NoError(t, err)
		}

		photos, err := s.ListGalleryPhotos(ctx, eventID, 0)
		require.NoError(t, err)
		require.Len(t, photos, 3)
		assert.True(t, photos[0].CreatedAt.After(photos[1].CreatedAt))
		assert.True(t, photos[1].CreatedAt.After(photos[2].CreatedAt))
	})
}
