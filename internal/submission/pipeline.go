package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/metrics"
	"dreamsnap-booth/internal/objectstore"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/storage"
	"dreamsnap-booth/internal/telegram"
)

var ErrLeadNotSaved = errors.New("failed to save your information")

type Status string

const (
	Skipped   Status = "skipped"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

const (
	StepLead     = "lead"
	StepDownload = "download"
	StepChat     = "chat"
	StepGallery  = "gallery"
)

type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func succeeded() Outcome            { return Outcome{Status: Succeeded} }
func skipped(reason string) Outcome { return Outcome{Status: Skipped, Reason: reason} }
func failed(err error) Outcome      { return Outcome{Status: Failed, Reason: err.Error()} }

func (o Outcome) Succeeded() bool { return o.Status == Succeeded }

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Reason)
}

// Report is the per-step result of one submission.
type Report struct {
	LeadID      uuid.UUID             `json:"leadId"`
	Lead        Outcome               `json:"lead"`
	Download    Outcome               `json:"download"`
	Chat        Outcome               `json:"chat"`
	Gallery     Outcome               `json:"gallery"`
	DownloadURL string                `json:"downloadUrl,omitempty"`
	GalleryURL  string                `json:"galleryUrl,omitempty"`
	Photo       *storage.GalleryPhoto `json:"photo,omitempty"`
}

// Succeeded is true once the lead is stored; the other steps are extras.
func (r Report) Succeeded() bool {
	return r.Lead.Succeeded()
}

func (r Report) Outcomes() map[string]string {
	return map[string]string{
		StepLead:     r.Lead.String(),
		StepDownload: r.Download.String(),
		StepChat:     r.Chat.String(),
		StepGallery:  r.Gallery.String(),
	}
}

// Uploader stores a public object and returns its URL. *objectstore.Bucket
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// ChatPublisher posts the portrait to the event chat. *telegram.Publisher
// satisfies it.
type ChatPublisher interface {
	SendPhoto(ctx context.Context, img media.Image, caption string) error
}

// Announcer tells live gallery screens about a new photo. feed.Broker
// satisfies it.
type Announcer interface {
	Publish(ctx context.Context, p storage.GalleryPhoto) error
}

type Options struct {
	Leads     storage.LeadStore
	Gallery   storage.GalleryStore
	Downloads Uploader
	Bucket    Uploader
	Chat      ChatPublisher
	Feed      Announcer
	Retry     *retry.Policy

	// RequireChat publishes to the gallery only after the chat post went
	// through.
	RequireChat bool

	Metrics *metrics.Metrics
	Now     func() time.Time
	Logger  *slog.Logger
}

type Pipeline struct {
	leads       storage.LeadStore
	gallery     storage.GalleryStore
	downloads   Uploader
	bucket      Uploader
	chat        ChatPublisher
	feed        Announcer
	retry       *retry.Policy
	requireChat bool
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      *slog.Logger
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Retry
	if policy == nil {
		policy = retry.New(retry.Options{Logger: logger})
	}
	return &Pipeline{
		leads:       opts.Leads,
		gallery:     opts.Gallery,
		downloads:   opts.Downloads,
		bucket:      opts.Bucket,
		chat:        opts.Chat,
		feed:        opts.Feed,
		retry:       policy,
		requireChat: opts.RequireChat,
		metrics:     opts.Metrics,
		now:         now,
		logger:      logger,
	}
}

// Submit runs the steps in order: lead, download, chat, gallery. Only a lead
// that could not be stored is an error; later steps degrade to outcomes.
func (p *Pipeline) Submit(ctx context.Context, l lead.Lead, final media.Image) (Report, error) {
	log := p.logger.With(slog.String("lead_id", l.ID.String()), slog.String("event_id", l.EventID))
	report := Report{
		LeadID:   l.ID,
		Download: skipped("not attempted"),
		Chat:     skipped("not attempted"),
		Gallery:  skipped("not attempted"),
	}

	if final.Empty() {
		report.Lead = failed(media.ErrEmptyImage)
		p.record(StepLead, report.Lead)
		return report, fmt.Errorf("%w: %v", ErrLeadNotSaved, media.ErrEmptyImage)
	}

	err := p.retry.Do(ctx, "lead insert", func(ctx context.Context) error {
		_, err := p.leads.InsertLead(ctx, l)
		return err
	})
	if err != nil {
		report.Lead = failed(err)
		p.record(StepLead, report.Lead)
		log.Error("lead not saved", "err", err)
		return report, fmt.Errorf("%w: %v", ErrLeadNotSaved, err)
	}
	report.Lead = succeeded()
	p.record(StepLead, report.Lead)
	log.Info("lead saved")

	now := p.now()

	report.Download, report.DownloadURL = p.saveDownload(ctx, l, final, now)
	p.record(StepDownload, report.Download)
	if !report.Download.Succeeded() {
		log.Warn("download not saved", "outcome", report.Download.String())
	}

	caption := telegram.Caption(l.FullName, l.ThemeSelected, l.Handles(), l.FullPhone())

	report.Chat = p.sendChat(ctx, final, caption)
	p.record(StepChat, report.Chat)
	if report.Chat.Status == Failed {
		log.Warn("chat publish failed", "reason", report.Chat.Reason)
	}

	if p.requireChat && !report.Chat.Succeeded() {
		report.Gallery = skipped("chat publish did not succeed")
	} else {
		report.Gallery, report.Photo = p.publishGallery(ctx, l, final, caption, now)
		if report.Photo != nil {
			report.GalleryURL = report.Photo.ImageURL
		}
	}
	p.record(StepGallery, report.Gallery)
	if report.Gallery.Status == Failed {
		log.Warn("gallery publish failed", "reason", report.Gallery.Reason)
	}

	return report, nil
}

func (p *Pipeline) saveDownload(ctx context.Context, l lead.Lead, final media.Image, now time.Time) (Outcome, string) {
	if p.downloads == nil {
		return skipped("downloads disabled"), ""
	}
	url, err := p.downloads.Upload(ctx, media.DownloadFilename(l.FullName, now), final.Data)
	if err != nil {
		return failed(err), ""
	}
	return succeeded(), url
}

func (p *Pipeline) sendChat(ctx context.Context, final media.Image, caption string) Outcome {
	if p.chat == nil {
		return skipped("Telegram Bot not configured")
	}
	if err := p.chat.SendPhoto(ctx, final, caption); err != nil {
		return failed(err)
	}
	return succeeded()
}

func (p *Pipeline) publishGallery(ctx context.Context, l lead.Lead, final media.Image, caption string, now time.Time) (Outcome, *storage.GalleryPhoto) {
	if p.bucket == nil || p.gallery == nil {
		return skipped("gallery storage not configured"), nil
	}

	compressed, err := media.Compress(final, media.GalleryMaxBytes, media.GalleryMaxDimension)
	if err != nil {
		return failed(fmt.Errorf("compress: %w", err)), nil
	}

	name := media.GalleryObjectName(l.FullName, l.ThemeSelected, now)
	var (
		url      string
		attempts int
	)
	err = p.retry.Do(ctx, "gallery upload", func(ctx context.Context) error {
		attempts++
		u, err := p.bucket.Upload(ctx, name, compressed.Data)
		if errors.Is(err, objectstore.ErrObjectExists) && attempts > 1 {
			// An earlier attempt landed before failing.
			u, err = objectURL(p.bucket, name), nil
		}
		url = u
		return err
	})
	if err != nil {
		return failed(fmt.Errorf("upload: %w", err)), nil
	}

	photo := storage.GalleryPhoto{
		ID:            uuid.New(),
		CreatedAt:     now.UTC(),
		ImageURL:      url,
		Caption:       caption,
		FullName:      l.FullName,
		ThemeSelected: l.ThemeSelected,
		EventID:       l.EventID,
	}
	err = p.retry.Do(ctx, "gallery insert", func(ctx context.Context) error {
		_, err := p.gallery.InsertGalleryPhoto(ctx, photo)
		return err
	})
	if err != nil {
		return failed(fmt.Errorf("record: %w", err)), nil
	}

	if p.feed != nil {
		if err := p.feed.Publish(ctx, photo); err != nil {
			p.logger.Warn("gallery announce failed", "photo_id", photo.ID, "err", err)
		}
	}
	return succeeded(), &photo
}

func objectURL(u Uploader, name string) string {
	if b, ok := u.(interface{ PublicURL(string) string }); ok {
		return b.PublicURL(name)
	}
	return name
}

func (p *Pipeline) record(step string, o Outcome) {
	p.metrics.Step(step, string(o.Status))
}
