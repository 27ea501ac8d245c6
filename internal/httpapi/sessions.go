package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"dreamsnap-booth/internal/booth"
	"dreamsnap-booth/internal/capture"
	"dreamsnap-booth/internal/gallery"
	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
	"dreamsnap-booth/internal/session"
	"dreamsnap-booth/internal/theme"
)

type viewportRequest struct {
	Width  int `json:"width" validate:"required,gt=0"`
	Height int `json:"height" validate:"required,gt=0"`
}

type selectRequest struct {
	Index *int `json:"index" validate:"required"`
}

type themeRequest struct {
	ThemeID string `json:"themeId" validate:"required"`
}

// sessionView is the session plus the URLs the kiosk loads images from.
type sessionView struct {
	session.Session
	PhotoURLs    []string `json:"photoUrls,omitempty"`
	GeneratedURL string   `json:"generatedUrl,omitempty"`
	FinalURL     string   `json:"finalUrl,omitempty"`
}

func newSessionView(s session.Session) sessionView {
	v := sessionView{Session: s}
	base := "/api/sessions/" + s.ID
	for _, p := range s.Photos {
		v.PhotoURLs = append(v.PhotoURLs, fmt.Sprintf("%s/photos/%d", base, p.Index))
	}
	if s.HasGenerated() {
		v.GeneratedURL = base + "/generated"
	}
	if s.HasFinal() {
		v.FinalURL = base + "/final"
	}
	return v
}

func (s *Server) themes(c echo.Context) error {
	return c.JSON(http.StatusOK, SuccessResponse(theme.Summaries()))
}

func (s *Server) createSession(c echo.Context) error {
	sess := s.opts.Booth.NewSession()
	return c.JSON(http.StatusCreated, SuccessResponse(newSessionView(sess)))
}

func (s *Server) getSession(c echo.Context) error {
	sess, err := s.opts.Booth.Get(c.Param("id"))
	return s.sessionResult(c, "http.getSession", sess, err)
}

func (s *Server) deleteSession(c echo.Context) error {
	s.opts.Booth.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setViewport(c echo.Context) error {
	var req viewportRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}
	sess, err := s.opts.Booth.SetViewport(c.Param("id"), req.Width, req.Height)
	return s.sessionResult(c, "http.setViewport", sess, err)
}

func (s *Server) toggleFacing(c echo.Context) error {
	sess, err := s.opts.Booth.ToggleFacing(c.Param("id"))
	return s.sessionResult(c, "http.toggleFacing", sess, err)
}

func (s *Server) startCapture(c echo.Context) error {
	sess, err := s.opts.Booth.StartCapture(c.Param("id"))
	if err != nil {
		return s.sessionResult(c, "http.startCapture", sess, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse(newSessionView(sess)))
}

func (s *Server) selectPhoto(c echo.Context) error {
	var req selectRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}
	sess, err := s.opts.Booth.SelectPhoto(c.Param("id"), *req.Index)
	return s.sessionResult(c, "http.selectPhoto", sess, err)
}

func (s *Server) continueStep(c echo.Context) error {
	sess, err := s.opts.Booth.Continue(c.Param("id"))
	return s.sessionResult(c, "http.continue", sess, err)
}

func (s *Server) back(c echo.Context) error {
	sess, err := s.opts.Booth.Back(c.Param("id"))
	return s.sessionResult(c, "http.back", sess, err)
}

func (s *Server) selectTheme(c echo.Context) error {
	var req themeRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}
	sess, err := s.opts.Booth.SelectTheme(c.Param("id"), req.ThemeID)
	return s.sessionResult(c, "http.selectTheme", sess, err)
}

func (s *Server) generate(c echo.Context) error {
	sess, err := s.opts.Booth.StartGeneration(c.Param("id"))
	if err != nil {
		return s.sessionResult(c, "http.generate", sess, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse(newSessionView(sess)))
}

func (s *Server) approve(c echo.Context) error {
	sess, err := s.opts.Booth.Approve(c.Param("id"))
	return s.sessionResult(c, "http.approve", sess, err)
}

func (s *Server) retry(c echo.Context) error {
	sess, err := s.opts.Booth.Retry(c.Param("id"))
	return s.sessionResult(c, "http.retry", sess, err)
}

func (s *Server) submitLead(c echo.Context) error {
	var form lead.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithDetails(codeInvalidRequest, "Invalid request format"))
	}
	sess, err := s.opts.Booth.SubmitLead(c.Param("id"), form)
	if err != nil {
		return s.sessionResult(c, "http.submitLead", sess, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse(newSessionView(sess)))
}

func (s *Server) reset(c echo.Context) error {
	sess, err := s.opts.Booth.Reset(c.Param("id"))
	return s.sessionResult(c, "http.reset", sess, err)
}

func (s *Server) photo(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithDetails(codeInvalidRequest, "index must be a number"))
	}
	img, err := s.opts.Booth.Photo(c.Param("id"), index)
	return s.image(c, "http.photo", img, err)
}

func (s *Server) generatedImage(c echo.Context) error {
	img, err := s.opts.Booth.Generated(c.Param("id"))
	return s.image(c, "http.generated", img, err)
}

func (s *Server) finalImage(c echo.Context) error {
	img, err := s.opts.Booth.Final(c.Param("id"))
	return s.image(c, "http.final", img, err)
}

func (s *Server) image(c echo.Context, op string, img media.Image, err error) error {
	if err != nil {
		return s.fail(c, op, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, img.Mime(), img.Data)
}

// bind decodes and validates the body. When ok is false the 400 response
// has been written and the handler returns err as is.
func (s *Server) bind(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponseWithDetails(codeInvalidRequest, "Invalid request format"))
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponseWithDetails(codeInvalidRequest, err.Error()))
	}
	return true, nil
}

func (s *Server) sessionResult(c echo.Context, op string, sess session.Session, err error) error {
	if err != nil {
		return s.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse(newSessionView(sess)))
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c echo.Context, op string, err error) error {
	var verr *booth.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, ValidationResponse{Status: statusError, Errors: verr.Fields})
	}

	status, code := http.StatusInternalServerError, codeInternal
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, booth.ErrNoImage),
		errors.Is(err, gallery.ErrUnknownEvent):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, theme.ErrUnknownTheme), errors.Is(err, theme.ErrThemeDisabled):
		status, code = http.StatusBadRequest, codeInvalidTheme
	case errors.Is(err, session.ErrPhotoNotInSession):
		status, code = http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, booth.ErrAlreadyRunning),
		errors.Is(err, capture.ErrCaptureInProgress),
		errors.Is(err, capture.ErrCameraUnavailable),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrWrongStep),
		errors.Is(err, session.ErrIncompleteBurst),
		errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrNoTheme),
		errors.Is(err, session.ErrNoFinalImage):
		status, code = http.StatusConflict, codeConflict
	case errors.Is(err, gallery.ErrNotRunning):
		status, code = http.StatusServiceUnavailable, codeUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", slog.String("op", op), slog.Any("err", err))
		return c.JSON(status, ErrorResponseWithDetails(code, "Internal server error"))
	}
	s.log.Debug("request rejected", slog.String("op", op), slog.Any("err", err))
	return c.JSON(status, ErrorResponseWithDetails(code, err.Error()))
}
