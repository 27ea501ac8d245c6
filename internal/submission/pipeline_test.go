package submission

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dreamsnap-booth/internal/feed"
	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/metrics"
	"dreamsnap-booth/internal/objectstore"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/storage"
)

type MockLeads struct{ mock.Mock }

func (m *MockLeads) InsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	args := m.Called(ctx, l)
	return l, args.Error(0)
}

type MockGallery struct{ mock.Mock }

func (m *MockGallery) InsertGalleryPhoto(ctx context.Context, p storage.GalleryPhoto) (storage.GalleryPhoto, error) {
	args := m.Called(ctx, p)
	return p, args.Error(0)
}

func (m *MockGallery) ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error) {
	args := m.Called(ctx, eventID, limit)
	return nil, args.Error(0)
}

type MockChat struct{ mock.Mock }

func (m *MockChat) SendPhoto(ctx context.Context, img media.Image, caption string) error {
	return m.Called(ctx, img, caption).Error(0)
}

// instantTimer fires immediately and records every wait.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

type unavailable struct{}

func (unavailable) Error() string   { return "service unavailable" }
func (unavailable) StatusCode() int { return 503 }

type fixture struct {
	leads     *MockLeads
	gallery   *MockGallery
	chat      *MockChat
	broker    *feed.MemoryBroker
	timer     *instantTimer
	downloads string
	media     string
	metrics   *metrics.Metrics
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		leads:     new(MockLeads),
		gallery:   new(MockGallery),
		chat:      new(MockChat),
		broker:    feed.NewMemoryBroker(nil),
		timer:     &instantTimer{c: make(chan time.Time, 1)},
		downloads: t.TempDir(),
		media:     t.TempDir(),
		metrics:   metrics.New(prometheus.NewRegistry()),
		now:       time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
	}
}

func (f *fixture) pipeline(t *testing.T, requireChat bool, chat ChatPublisher) *Pipeline {
	t.Helper()
	downloads, err := objectstore.New(f.downloads, "/downloads", "")
	require.NoError(t, err)
	bucket, err := objectstore.New(f.media, "http://kiosk/media", objectstore.GalleryBucket)
	require.NoError(t, err)

	return New(Options{
		Leads:       f.leads,
		Gallery:     f.gallery,
		Downloads:   downloads,
		Bucket:      bucket,
		Chat:        chat,
		Feed:        f.broker,
		Retry:       retry.New(retry.Options{Timer: f.timer}),
		RequireChat: requireChat,
		Metrics:     f.metrics,
		Now:         func() time.Time { return f.now },
	})
}

func finalImage(t *testing.T) media.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 108, 192))
	for y := 0; y < 192; y++ {
		for x := 0; x < 108; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return media.Image{Data: buf.Bytes(), MimeType: "image/jpeg"}
}

func testLead() lead.Lead {
	return lead.Lead{
		ID:               uuid.New(),
		FullName:         "Ana & Ben",
		InstagramHandle1: "@ana",
		PhoneNumber:      "5551234567",
		CountryCode:      "+1",
		ConsentGiven:     true,
		ThemeSelected:    "Beach Wedding",
		EventID:          "expo",
		CreatedAt:        time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newFixture(t)
	l := testLead()
	final := finalImage(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live, err := f.broker.Subscribe(ctx, "expo")
	require.NoError(t, err)

	f.leads.On("InsertLead", mock.Anything, l).Return(nil).Once()
	f.chat.On("SendPhoto", mock.Anything, final, mock.MatchedBy(func(c string) bool {
		return strings.HasPrefix(c, "✨ Ana & Ben\n🎨 Theme: Beach Wedding\n📸 @ana\n📱 +15551234567")
	})).Return(nil).Once()
	f.gallery.On("InsertGalleryPhoto", mock.Anything, mock.MatchedBy(func(p storage.GalleryPhoto) bool {
		return p.EventID == "expo" && p.FullName == "Ana & Ben" && p.ThemeSelected == "Beach Wedding" &&
			strings.HasPrefix(p.ImageURL, "http://kiosk/media/gallery-photos/")
	})).Return(nil).Once()

	report, err := f.pipeline(t, true, f.chat).Submit(ctx, l, final)
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, Succeeded, report.Download.Status)
	assert.Equal(t, Succeeded, report.Chat.Status)
	assert.Equal(t, Succeeded, report.Gallery.Status)

	wantDownload := "dreamsnap_ana___ben_" + "1777660200000" + ".jpg"
	assert.Equal(t, "/downloads/"+wantDownload, report.DownloadURL)
	saved, err := os.ReadFile(filepath.Join(f.downloads, wantDownload))
	require.NoError(t, err)
	assert.Equal(t, final.Data, saved)

	require.NotNil(t, report.Photo)
	assert.Equal(t, report.Photo.ImageURL, report.GalleryURL)
	objects, err := os.ReadDir(filepath.Join(f.media, objectstore.GalleryBucket))
	require.NoError(t, err)
	assert.Len(t, objects, 1)

	select {
	case p := <-live:
		assert.Equal(t, report.Photo.ID, p.ID)
	case <-time.After(time.Second):
		t.Fatal("gallery photo not announced")
	}

	assert.Empty(t, f.timer.waits)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionSteps.WithLabelValues(StepGallery, string(Succeeded))))
	f.leads.AssertExpectations(t)
	f.chat.AssertExpectations(t)
	f.gallery.AssertExpectations(t)
}

func TestSubmitChatFailureSkipsGallery(t *testing.T) {
	f := newFixture(t)
	l := testLead()

	f.leads.On("InsertLead", mock.Anything, l).Return(nil)
	f.chat.On("SendPhoto", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("Invalid chat ID or bad request"))

	report, err := f.pipeline(t, true, f.chat).Submit(context.Background(), l, finalImage(t))
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, Failed, report.Chat.Status)
	assert.Equal(t, Skipped, report.Gallery.Status)
	assert.Empty(t, report.GalleryURL)
	f.gallery.AssertNotCalled(t, "InsertGalleryPhoto", mock.Anything, mock.Anything)
}

func TestSubmitWithoutChatWhenNotRequired(t *testing.T) {
	f := newFixture(t)
	l := testLead()

	f.leads.On("InsertLead", mock.Anything, l).Return(nil)
	f.gallery.On("InsertGalleryPhoto", mock.Anything, mock.Anything).Return(nil)

	report, err := f.pipeline(t, false, nil).Submit(context.Background(), l, finalImage(t))
	require.NoError(t, err)
	assert.Equal(t, Skipped, report.Chat.Status)
	assert.Equal(t, Succeeded, report.Gallery.Status)
}

func TestSubmitRetriesTransientLeadFailures(t *testing.T) {
	f := newFixture(t)
	l := testLead()

	f.leads.On("InsertLead", mock.Anything, l).Return(unavailable{}).Twice()
	f.leads.On("InsertLead", mock.Anything, l).Return(nil).Once()
	f.chat.On("SendPhoto", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.gallery.On("InsertGalleryPhoto", mock.Anything, mock.Anything).Return(nil)

	report, err := f.pipeline(t, true, f.chat).Submit(context.Background(), l, finalImage(t))
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.timer.waits)
	f.leads.AssertNumberOfCalls(t, "InsertLead", 3)
}

func TestSubmitLeadFailureStopsPipeline(t *testing.T) {
	f := newFixture(t)
	l := testLead()

	f.leads.On("InsertLead", mock.Anything, l).Return(storage.ErrInvalidRecord)

	report, err := f.pipeline(t, true, f.chat).Submit(context.Background(), l, finalImage(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLeadNotSaved)
	assert.False(t, report.Succeeded())
	assert.Equal(t, Failed, report.Lead.Status)
	assert.Equal(t, Skipped, report.Chat.Status)
	assert.Empty(t, f.timer.waits, "client errors are not retried")

	f.leads.AssertNumberOfCalls(t, "InsertLead", 1)
	f.chat.AssertNotCalled(t, "SendPhoto", mock.Anything, mock.Anything, mock.Anything)
	entries, _ := os.ReadDir(f.downloads)
	assert.Empty(t, entries)
}

func TestSubmitGalleryInsertFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	l := testLead()

	f.leads.On("InsertLead", mock.Anything, l).Return(nil)
	f.chat.On("SendPhoto", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.gallery.On("InsertGalleryPhoto", mock.Anything, mock.Anything).Return(unavailable{})

	report, err := f.pipeline(t, true, f.chat).Submit(context.Background(), l, finalImage(t))
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, Failed, report.Gallery.Status)
	f.gallery.AssertNumberOfCalls(t, "InsertGalleryPhoto", 3)
	assert.Contains(t, report.Outcomes()[StepGallery], "service unavailable")
}
