package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dreamsnap-booth/internal/media"
)

const (
	captionLimit = 1024
	signature    = "💫 Created with DreamSnap AI Photography"
)

var ErrNotConfigured = errors.New("telegram bot not configured")

type Options struct {
	Token  string
	ChatID string
	// Endpoint overrides tgbotapi.APIEndpoint ("…/bot%s/%s").
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

// Publisher posts finished portraits to the event's group or channel. The
// bot connects on first use when Telegram is unreachable at startup.
type Publisher struct {
	token      string
	endpoint   string
	httpClient *http.Client
	debug      bool
	chatID     int64
	channel    string
	logger     *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// New fails on missing or malformed settings and on a token Telegram
// rejects. Any other startup failure is logged and retried on send.
func New(opts Options) (*Publisher, error) {
	if strings.TrimSpace(opts.Token) == "" || strings.TrimSpace(opts.ChatID) == "" {
		return nil, ErrNotConfigured
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	chatID, channel, err := parseChatID(opts.ChatID)
	if err != nil {
		return nil, err
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Publisher{
		token:      strings.TrimSpace(opts.Token),
		endpoint:   endpoint,
		httpClient: opts.HTTPClient,
		debug:      opts.Debug,
		chatID:     chatID,
		channel:    channel,
		logger:     logger,
	}
	if _, err := p.connect(); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.badToken() {
			return nil, err
		}
		logger.Warn("telegram not reachable, connecting on first send", "err", err)
	}
	return p, nil
}

func (p *Publisher) connect() (*tgbotapi.BotAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bot != nil {
		return p.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(p.token, p.endpoint, p.httpClient)
	if err != nil {
		return nil, describe(err)
	}
	bot.Debug = p.debug
	p.bot = bot
	return bot, nil
}

// Username is empty until the bot has connected.
func (p *Publisher) Username() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bot == nil {
		return ""
	}
	return p.bot.Self.UserName
}

// SendPhoto uploads img unmodified with caption.
func (p *Publisher) SendPhoto(ctx context.Context, img media.Image, caption string) error {
	if img.Empty() {
		return media.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := p.connect()
	if err != nil {
		return err
	}

	file := tgbotapi.FileBytes{Name: "photo.jpg", Bytes: img.Data}
	var photo tgbotapi.PhotoConfig
	if p.channel != "" {
		photo = tgbotapi.NewPhotoToChannel(p.channel, file)
	} else {
		photo = tgbotapi.NewPhoto(p.chatID, file)
	}
	photo.Caption = truncateByBytes(caption, captionLimit)

	msg, err := bot.Send(photo)
	if err != nil {
		return describe(err)
	}
	p.logger.Info("photo sent to telegram", "message_id", msg.MessageID, "bytes", len(img.Data))
	return nil
}

// APIError is a Bot API failure with a kiosk-friendly message.
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *APIError) StatusCode() int {
	return e.Code
}

func (e *APIError) badToken() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusNotFound
}

func describe(err error) error {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return err
	}
	code := tgErr.Code
	if code == 0 {
		// Multipart uploads do not carry error_code through.
		code = codeFromDescription(tgErr.Message)
	}

	out := &APIError{Code: code, Message: tgErr.Message}
	switch code {
	case http.StatusUnauthorized, http.StatusNotFound:
		out.Message, out.Detail = "Invalid Telegram Bot token", tgErr.Message
	case http.StatusBadRequest:
		out.Message, out.Detail = "Invalid chat ID or bad request", tgErr.Message
	}
	return out
}

func codeFromDescription(desc string) int {
	switch {
	case strings.HasPrefix(desc, "Unauthorized"):
		return http.StatusUnauthorized
	case strings.HasPrefix(desc, "Not Found"):
		return http.StatusNotFound
	case strings.HasPrefix(desc, "Bad Request"):
		return http.StatusBadRequest
	case strings.HasPrefix(desc, "Forbidden"):
		return http.StatusForbidden
	case strings.HasPrefix(desc, "Too Many Requests"):
		return http.StatusTooManyRequests
	}
	return 0
}

// Caption renders the message posted under each portrait.
func Caption(fullName, themeName string, handles []string, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✨ %s\n🎨 Theme: %s", fullName, themeName)

	var kept []string
	for _, h := range handles {
		if h = strings.TrimSpace(h); h != "" {
			kept = append(kept, h)
		}
	}
	if len(kept) > 0 {
		fmt.Fprintf(&b, "\n📸 %s", strings.Join(kept, " "))
	}
	if phone != "" {
		fmt.Fprintf(&b, "\n📱 %s", phone)
	}

	b.WriteString("\n\n")
	b.WriteString(signature)
	return b.String()
}

func parseChatID(value string) (int64, string, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "@") {
		return 0, value, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid telegram chat id %q", value)
	}
	return id, "", nil
}

func truncateByBytes(text string, maxBytes int) string {
	if len([]byte(text)) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len([]byte(string(r)))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
