package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Debug    bool   `env:"DEBUG" env-default:"false"`

	WebAddr        string   `env:"WEB_ADDR" env-default:":8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	PreferIPv4            bool `env:"PREFER_IPV4" env-default:"true"`
	HTTPTimeoutSeconds    int  `env:"HTTP_TIMEOUT_SECONDS" env-default:"180"`
	RequestTimeoutSeconds int  `env:"REQUEST_TIMEOUT_SECONDS" env-default:"240"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
	GeminiAPIVersion string `env:"GEMINI_API_VERSION" env-default:"v1beta"`
	GeminiImageModel string `env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image"`

	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`

	EventID           string `env:"EVENT_ID" env-default:"default"`
	WatermarkURL      string `env:"WATERMARK_URL" env-default:"./assets/logo.png"`
	AssetsDir         string `env:"ASSETS_DIR" env-default:"./assets"`
	CameraSnapshotURL string `env:"CAMERA_SNAPSHOT_URL"`

	// GalleryEventIDs are extra events whose walls this kiosk serves next to
	// EventID.
	GalleryEventIDs []string `env:"GALLERY_EVENT_IDS" env-separator:","`

	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" env-default:"./data/booth.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	StorageDir     string `env:"STORAGE_DIR" env-default:"./data/media"`
	StorageBaseURL string `env:"STORAGE_BASE_URL" env-default:"http://localhost:8080/media"`
	DownloadDir    string `env:"DOWNLOAD_DIR" env-default:"./data/downloads"`

	GalleryRequiresChat   bool `env:"GALLERY_REQUIRES_CHAT" env-default:"true"`
	GenerationStepPauseMS int  `env:"GENERATION_STEP_PAUSE_MS" env-default:"1000"`
	SessionIdleMinutes    int  `env:"SESSION_IDLE_MINUTES" env-default:"30"`
	MaxConcurrent         int  `env:"MAX_CONCURRENT" env-default:"4"`

	HTTPTimeout    time.Duration
	RequestTimeout time.Duration
	StepPause      time.Duration
	SessionIdle    time.Duration
}

// Load reads the environment. Missing credentials are not an error: the
// features that need them are switched off by the caller.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.TelegramChatID = strings.TrimSpace(cfg.TelegramChatID)
	cfg.GeminiBaseURL = strings.TrimSpace(cfg.GeminiBaseURL)
	cfg.GeminiAPIVersion = strings.TrimSpace(cfg.GeminiAPIVersion)
	cfg.StorageBaseURL = strings.TrimRight(strings.TrimSpace(cfg.StorageBaseURL), "/")
	if strings.TrimSpace(cfg.EventID) == "" {
		cfg.EventID = "default"
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		cfg.HTTPTimeoutSeconds = 180
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 240
	}
	if cfg.GenerationStepPauseMS < 0 {
		cfg.GenerationStepPauseMS = 0
	}
	if cfg.SessionIdleMinutes < 1 {
		cfg.SessionIdleMinutes = 30
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}

	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	cfg.StepPause = time.Duration(cfg.GenerationStepPauseMS) * time.Millisecond
	cfg.SessionIdle = time.Duration(cfg.SessionIdleMinutes) * time.Minute

	return cfg, nil
}

func (c Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c Config) PostgresEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// Missing lists the credentials that are absent, for startup warnings and
// diagnostics.
func (c Config) Missing() []string {
	var out []string
	if !c.GeminiEnabled() {
		out = append(out, "GEMINI_API_KEY")
	}
	if c.TelegramToken == "" {
		out = append(out, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == "" {
		out = append(out, "TELEGRAM_CHAT_ID")
	}
	return out
}
