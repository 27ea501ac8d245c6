package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"dreamsnap-booth/internal/diagnostics"
	"dreamsnap-booth/internal/feed"
	"dreamsnap-booth/internal/gallery"
	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/session"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Booth is the kiosk flow. *booth.Service satisfies it.
type Booth interface {
	EventID() string
	NewSession() session.Session
	Get(id string) (session.Session, error)
	Delete(id string)
	SetViewport(id string, width, height int) (session.Session, error)
	ToggleFacing(id string) (session.Session, error)
	StartCapture(id string) (session.Session, error)
	SelectPhoto(id string, index int) (session.Session, error)
	Continue(id string) (session.Session, error)
	Back(id string) (session.Session, error)
	SelectTheme(id, themeID string) (session.Session, error)
	StartGeneration(id string) (session.Session, error)
	Approve(id string) (session.Session, error)
	Retry(id string) (session.Session, error)
	SubmitLead(id string, form lead.Form) (session.Session, error)
	Reset(id string) (session.Session, error)
	Photo(id string, index int) (media.Image, error)
	Generated(id string) (media.Image, error)
	Final(id string) (media.Image, error)
}

// Galleries hands out live per-event views. *gallery.Manager satisfies it.
type Galleries interface {
	View(eventID string) (*gallery.View, error)
}

type Diagnostics interface {
	Run(ctx context.Context) diagnostics.Report
}

type Options struct {
	Booth       Booth
	Galleries   Galleries
	Hub         *feed.Hub
	Diagnostics Diagnostics

	DownloadDir    string
	MediaDir       string
	AllowedOrigins []string

	// Registry receives HTTP metrics and backs /metrics.
	Registry *prometheus.Registry
	Now      func() time.Time
	Logger   *slog.Logger
}

type Server struct {
	e    *echo.Echo
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = jsonErrorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "booth_http",
		Registerer: opts.Registry,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http",
				slog.String("method", v.Method),
				slog.String("path", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("dur_ms", v.Latency.Milliseconds()),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))

	s := &Server{e: e, opts: opts, log: log, now: now}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/health", s.health)
	s.e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.opts.Registry,
	}))

	if s.opts.DownloadDir != "" {
		s.e.Static("/downloads", s.opts.DownloadDir)
	}
	if s.opts.MediaDir != "" {
		s.e.Static("/media", s.opts.MediaDir)
	}

	api := s.e.Group("/api")
	{
		api.GET("/diagnostics", s.diagnostics)
		api.GET("/themes", s.themes)

		api.POST("/sessions", s.createSession)
		sessions := api.Group("/sessions/:id")
		{
			sessions.GET("", s.getSession)
			sessions.DELETE("", s.deleteSession)
			sessions.POST("/viewport", s.setViewport)
			sessions.POST("/facing", s.toggleFacing)
			sessions.POST("/capture", s.startCapture)
			sessions.POST("/select", s.selectPhoto)
			sessions.POST("/continue", s.continueStep)
			sessions.POST("/back", s.back)
			sessions.POST("/theme", s.selectTheme)
			sessions.POST("/generate", s.generate)
			sessions.POST("/approve", s.approve)
			sessions.POST("/retry", s.retry)
			sessions.POST("/lead", s.submitLead)
			sessions.POST("/reset", s.reset)
			sessions.GET("/photos/:index", s.photo)
			sessions.GET("/generated", s.generatedImage)
			sessions.GET("/final", s.finalImage)
		}

		api.GET("/gallery", s.listGallery)
		api.GET("/gallery/ws", s.galleryWS)
	}
}

// ServeHTTP lets the server be mounted in httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	const op = "httpapi.Server.Run"

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web started", "addr", addr)
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s: %w", op, err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: could not shutdown server gracefully: %w", op, err)
	}
	return <-errCh
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, SuccessResponse(map[string]string{"event_id": s.opts.Booth.EventID()}))
}

func (s *Server) diagnostics(c echo.Context) error {
	if s.opts.Diagnostics == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponseWithDetails(codeUnavailable, "diagnostics not configured"))
	}
	report := s.opts.Diagnostics.Run(c.Request().Context())
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, SuccessResponse(report))
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// jsonErrorHandler keeps the kiosk on JSON even for routing errors and
// recovered panics.
func jsonErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		body := ErrorResponseWithDetails(codeInternal, "Internal server error")

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body = ErrorResponseWithDetails(strings.ToLower(strings.ReplaceAll(http.StatusText(code), " ", "_")), fmt.Sprint(he.Message))
		} else {
			log.Error("unhandled error", "path", c.Request().URL.Path, "err", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}
