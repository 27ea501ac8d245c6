package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"dreamsnap-booth/internal/assets"
	"dreamsnap-booth/internal/booth"
	"dreamsnap-booth/internal/camera"
	"dreamsnap-booth/internal/capture"
	"dreamsnap-booth/internal/config"
	"dreamsnap-booth/internal/diagnostics"
	"dreamsnap-booth/internal/feed"
	"dreamsnap-booth/internal/gallery"
	"dreamsnap-booth/internal/gemini"
	"dreamsnap-booth/internal/generation"
	"dreamsnap-booth/internal/httpapi"
	"dreamsnap-booth/internal/httpclient"
	"dreamsnap-booth/internal/metrics"
	"dreamsnap-booth/internal/objectstore"
	"dreamsnap-booth/internal/retry"
	"dreamsnap-booth/internal/session"
	"dreamsnap-booth/internal/storage"
	"dreamsnap-booth/internal/storage/postgres"
	"dreamsnap-booth/internal/storage/sqlite"
	"dreamsnap-booth/internal/submission"
	"dreamsnap-booth/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("credentials missing, dependent features disabled", "missing", missing)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("booth stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		broker     feed.Broker
		feedHealth diagnostics.HealthChecker
	)
	if cfg.RedisEnabled() {
		client := feed.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		if err := client.HealthCheck(ctx); err != nil {
			logger.Warn("redis not reachable, live gallery will keep resubscribing", "addr", cfg.RedisAddr, "err", err)
		}
		broker = feed.NewRedisBroker(client, logger)
		feedHealth = client
	} else {
		broker = feed.NewMemoryBroker(logger)
	}

	downloads, err := objectstore.New(cfg.DownloadDir, "/downloads", "")
	if err != nil {
		return err
	}
	bucket, err := objectstore.New(cfg.StorageDir, cfg.StorageBaseURL, objectstore.GalleryBucket)
	if err != nil {
		return err
	}

	var chat submission.ChatPublisher
	if cfg.TelegramEnabled() {
		pub, err := telegram.New(telegram.Options{
			Token:      cfg.TelegramToken,
			ChatID:     cfg.TelegramChatID,
			HTTPClient: httpClient,
			Logger:     logger,
			Debug:      cfg.Debug,
		})
		if err != nil {
			logger.Warn("telegram init failed, chat publishing disabled", "err", err)
		} else {
			chat = pub
		}
	}

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiImageModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	orchestrator := generation.New(generation.Options{
		Editor: gem,
		Assets: assets.New(assets.Options{
			Dir:        cfg.AssetsDir,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		WatermarkRef: cfg.WatermarkURL,
		StepPause:    cfg.StepPause,
		Logger:       logger,
	})

	pipeline := submission.New(submission.Options{
		Leads:       store,
		Gallery:     store,
		Downloads:   downloads,
		Bucket:      bucket,
		Chat:        chat,
		Feed:        broker,
		Retry:       retry.New(retry.Options{Logger: logger}),
		RequireChat: cfg.GalleryRequiresChat,
		Metrics:     m,
		Logger:      logger,
	})

	sessions := session.NewStore(session.Options{})
	svc := booth.New(booth.Options{
		Sessions: sessions,
		Capture: capture.New(capture.Options{
			Sessions: sessions,
			Source:   camera.NewHTTPSnapshot(cfg.CameraSnapshotURL, httpClient),
			Logger:   logger,
		}),
		Generator:     orchestrator,
		Submitter:     pipeline,
		EventID:       cfg.EventID,
		JobTimeout:    cfg.RequestTimeout,
		MaxConcurrent: cfg.MaxConcurrent,
		SessionIdle:   cfg.SessionIdle,
		Metrics:       m,
		Logger:        logger,
	})

	hub := feed.NewHub(logger)
	galleries := gallery.NewManager(gallery.ManagerOptions{
		Store:  store,
		Broker: broker,
		Events: cfg.GalleryEventIDs,
		Logger: logger,
		OnInsert: func(p storage.GalleryPhoto) {
			hub.PhotoAdded(p)
			m.GalleryPush()
		},
	})

	srv := httpapi.New(httpapi.Options{
		Booth:     svc,
		Galleries: galleries,
		Hub:       hub,
		Diagnostics: diagnostics.New(diagnostics.Options{
			Missing:        cfg.Missing(),
			EventID:        cfg.EventID,
			Store:          store,
			Bucket:         bucket,
			ChatConfigured: chat != nil,
			Feed:           feedHealth,
			Logger:         logger,
		}),
		DownloadDir:    cfg.DownloadDir,
		MediaDir:       cfg.StorageDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Registry:       reg,
		Logger:         logger,
	})

	logger.Info("booth started",
		"event_id", cfg.EventID,
		"store", storeKind(cfg),
		"live_feed", cfg.RedisEnabled(),
		"chat", chat != nil,
		"gemini", cfg.GeminiEnabled(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, cfg.WebAddr) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return galleries.Run(gctx, cfg.EventID) })
	g.Go(func() error { return svc.Run(gctx) })
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.PostgresEnabled() {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		logger.Info("record store ready", "driver", "postgres")
		return pg, nil
	}

	lite, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("record store ready", "driver", "sqlite", "path", cfg.SQLitePath)
	return lite, nil
}

func storeKind(cfg config.Config) string {
	if cfg.PostgresEnabled() {
		return "postgres"
	}
	return "sqlite"
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
