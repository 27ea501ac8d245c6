package diagnostics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dreamsnap-booth/internal/storage"
)

const (
	CheckConfig   = "config"
	CheckStore    = "store"
	CheckLeads    = "leads_table"
	CheckGallery  = "gallery_table"
	CheckBucket   = "bucket"
	CheckChat     = "chat"
	CheckFeed     = "feed"
	defaultBudget = 10 * time.Second
)

// Store is the subset of storage.Store the checks touch.
type Store interface {
	Ping(ctx context.Context) error
	CountLeads(ctx context.Context, eventID string) (int, error)
	ListGalleryPhotos(ctx context.Context, eventID string, limit int) ([]storage.GalleryPhoto, error)
}

type Bucket interface {
	Writable(ctx context.Context) error
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type Report struct {
	OK     bool    `json:"ok"`
	Checks []Check `json:"checks"`
}

func (r Report) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

type Options struct {
	// Missing lists unset credentials, see config.Config.Missing.
	Missing []string
	EventID string
	Store   Store
	Bucket  Bucket
	// ChatConfigured is false when no Telegram bot is wired.
	ChatConfigured bool
	// Feed is optional; nil means the in-process broker is used.
	Feed    HealthChecker
	Timeout time.Duration
	Logger  *slog.Logger
}

// Runner checks the booth's external dependencies on demand.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultBudget
	}
	return &Runner{opts: opts, logger: logger}
}

// Run executes every check concurrently. Individual failures are reported,
// not returned.
func (r *Runner) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks []Check
	)
	add := func(name string, err error, okDetail string) {
		c := Check{Name: name, OK: err == nil, Detail: okDetail}
		if err != nil {
			c.Detail = err.Error()
			r.logger.Warn("diagnostic failed", "check", name, "err", err)
		}
		mu.Lock()
		checks = append(checks, c)
		mu.Unlock()
	}

	if len(r.opts.Missing) > 0 {
		add(CheckConfig, fmt.Errorf("missing %s", strings.Join(r.opts.Missing, ", ")), "")
	} else {
		add(CheckConfig, nil, "all credentials set")
	}

	if r.opts.ChatConfigured {
		add(CheckChat, nil, "telegram bot configured")
	} else {
		add(CheckChat, fmt.Errorf("telegram bot not configured"), "")
	}

	var g errgroup.Group
	if r.opts.Store != nil {
		g.Go(func() error {
			add(CheckStore, r.opts.Store.Ping(ctx), "reachable")
			return nil
		})
		g.Go(func() error {
			n, err := r.opts.Store.CountLeads(ctx, r.opts.EventID)
			add(CheckLeads, err, fmt.Sprintf("%d leads for event %q", n, r.opts.EventID))
			return nil
		})
		g.Go(func() error {
			_, err := r.opts.Store.ListGalleryPhotos(ctx, r.opts.EventID, 1)
			add(CheckGallery, err, "queryable")
			return nil
		})
	} else {
		add(CheckStore, fmt.Errorf("no record store"), "")
	}
	if r.opts.Bucket != nil {
		g.Go(func() error {
			add(CheckBucket, r.opts.Bucket.Writable(ctx), "upload and cleanup ok")
			return nil
		})
	} else {
		add(CheckBucket, fmt.Errorf("no gallery bucket"), "")
	}
	if r.opts.Feed != nil {
		g.Go(func() error {
			add(CheckFeed, r.opts.Feed.HealthCheck(ctx), "redis reachable")
			return nil
		})
	} else {
		add(CheckFeed, nil, "in-process")
	}
	_ = g.Wait()

	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	report := Report{OK: true, Checks: checks}
	for _, c := range checks {
		// Missing credentials degrade features but do not make the booth unusable.
		if !c.OK && c.Name != CheckConfig && c.Name != CheckChat {
			report.OK = false
		}
	}
	return report
}
