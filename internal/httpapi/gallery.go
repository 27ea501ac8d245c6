package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"dreamsnap-booth/internal/gallery"
)

type galleryList struct {
	EventID string         `json:"eventId"`
	Photos  []gallery.Item `json:"photos"`
}

func (s *Server) eventID(c echo.Context) string {
	if id := strings.TrimSpace(c.QueryParam("event_id")); id != "" {
		return id
	}
	return s.opts.Booth.EventID()
}

func (s *Server) listGallery(c echo.Context) error {
	const op = "http.listGallery"

	eventID := s.eventID(c)
	view, err := s.opts.Galleries.View(eventID)
	if err != nil {
		return s.fail(c, op, err)
	}
	if !view.Loaded() {
		if err := view.Refresh(c.Request().Context()); err != nil {
			return s.fail(c, op, err)
		}
	}

	photos := view.Snapshot(s.now())
	if photos == nil {
		photos = []gallery.Item{}
	}
	return c.JSON(http.StatusOK, SuccessResponse(galleryList{EventID: eventID, Photos: photos}))
}

// galleryWS upgrades to a websocket that receives photo.new pushes for one
// event.
func (s *Server) galleryWS(c echo.Context) error {
	const op = "http.galleryWS"

	if s.opts.Hub == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponseWithDetails(codeUnavailable, "live gallery disabled"))
	}
	eventID := s.eventID(c)
	// The view must be running for inserts to reach the hub.
	if _, err := s.opts.Galleries.View(eventID); err != nil {
		return s.fail(c, op, err)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied.
		s.log.Warn("websocket upgrade failed", "op", op, "err", err)
		return nil
	}

	s.opts.Hub.Serve(c.Request().Context(), conn, eventID)
	return nil
}
