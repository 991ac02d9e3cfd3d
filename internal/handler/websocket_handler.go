package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/psds-microservice/meeting-service/internal/service"
	"go.uber.org/zap"
)

// EventsWSHandler handles WebSocket subscriptions for /ws/meetings/:meeting_id/:user_id.
type EventsWSHandler struct {
	hub      *service.Hub
	meetings *service.MeetingService
	logger   *zap.Logger
}

// NewEventsWSHandler creates the WebSocket events handler.
func NewEventsWSHandler(hub *service.Hub, meetings *service.MeetingService, logger *zap.Logger) *EventsWSHandler {
	return &EventsWSHandler{hub: hub, meetings: meetings, logger: logger}
}

// ServeWS upgrades the request to WebSocket and streams meeting events until
// the client disconnects. Path: /ws/meetings/:meeting_id/:user_id
func (h *EventsWSHandler) ServeWS(c *gin.Context) {
	meetingID, ok := idParam(c, "meeting_id")
	if !ok {
		return
	}
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	if _, err := h.meetings.Get(meetingID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub, cleanup := h.hub.Subscribe(meetingID, userID, conn)
	defer cleanup()

	// Writer goroutine: fan events from sub.Send to the connection
	go h.writePump(sub)

	// Reader: clients don't send anything meaningful; the loop only detects
	// disconnects.
	h.readPump(sub)
}

func (h *EventsWSHandler) readPump(s *service.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
	}
}

func (h *EventsWSHandler) writePump(s *service.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for data := range s.Send {
		if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
