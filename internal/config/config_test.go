package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("EVENT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, "default", cfg.EventID)
	assert.True(t, cfg.GalleryRequiresChat)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.StepPause)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.False(t, cfg.GeminiEnabled())
	assert.False(t, cfg.TelegramEnabled())
	assert.ElementsMatch(t, []string{"GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"}, cfg.Missing())
}

func TestLoadClampsAndTrims(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "-5")
	t.Setenv("GENERATION_STEP_PAUSE_MS", "-1")
	t.Setenv("STORAGE_BASE_URL", "https://cdn.example.com/media/")
	t.Setenv("TELEGRAM_BOT_TOKEN", " token ")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("GALLERY_REQUIRES_CHAT", "false")
	t.Setenv("GALLERY_EVENT_IDS", "expo-day1,expo-day2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Duration(0), cfg.StepPause)
	assert.Equal(t, "https://cdn.example.com/media", cfg.StorageBaseURL)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.True(t, cfg.TelegramEnabled())
	assert.False(t, cfg.GalleryRequiresChat)
	assert.Equal(t, []string{"expo-day1", "expo-day2"}, cfg.GalleryEventIDs)
}
