package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventKind identifies a meeting update event.
type EventKind string

const (
	EventStatusChanged     EventKind = "status-changed"
	EventAttendanceChanged EventKind = "attendance-changed"
	EventLiveTranscript    EventKind = "live-transcript-increment"
)

// Event is the wire envelope for a meeting update.
type Event struct {
	Event     EventKind   `json:"event"`
	MeetingID uint        `json:"meeting_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Broadcaster is the publish side of the update channel (D: зависимость от абстракции).
type Broadcaster interface {
	Publish(meetingID uint, kind EventKind, payload interface{})
}

// Subscriber represents a WebSocket connection watching one meeting.
type Subscriber struct {
	ID        string // connection id, unique per Subscribe call
	MeetingID uint
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub manages WebSocket subscribers and fans out meeting events.
// Delivery is best-effort: no persistence, no replay, slow subscribers drop.
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint]map[*Subscriber]struct{} // meetingID -> set of subscribers
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
}

// NewHub creates the event hub.
func NewHub(maxMessageSize int64, log *zap.Logger) *Hub {
	return &Hub{
		subs:       make(map[uint]map[*Subscriber]struct{}),
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Subscribe adds a connection to a meeting's update stream and returns a
// cleanup function (the unsubscribe operation).
func (h *Hub) Subscribe(meetingID uint, userID string, conn *websocket.Conn) (*Subscriber, func()) {
	if conn != nil && h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	s := &Subscriber{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
	h.mu.Lock()
	if h.subs[meetingID] == nil {
		h.subs[meetingID] = make(map[*Subscriber]struct{})
	}
	h.subs[meetingID][s] = struct{}{}
	h.mu.Unlock()

	h.log.Info("subscriber joined",
		zap.String("conn_id", s.ID),
		zap.Uint("meeting_id", meetingID),
		zap.String("user_id", userID))

	cleanup := func() {
		h.unsubscribe(meetingID, s)
	}
	return s, cleanup
}

func (h *Hub) unsubscribe(meetingID uint, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[meetingID]; ok {
		delete(m, s)
		if len(m) == 0 {
			delete(h.subs, meetingID)
		}
	}
	close(s.Send)
	h.log.Info("subscriber left",
		zap.Uint("meeting_id", meetingID),
		zap.String("user_id", s.UserID))
}

// Publish delivers the payload plus a server timestamp to every current
// subscriber of the meeting. Subscribers with a full buffer miss the event.
func (h *Hub) Publish(meetingID uint, kind EventKind, payload interface{}) {
	raw, err := json.Marshal(Event{
		Event:     kind,
		MeetingID: meetingID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.log.Warn("event marshal failed", zap.Uint("meeting_id", meetingID), zap.Error(err))
		return
	}

	// The sends are non-blocking, so they stay under the read lock. That
	// excludes unsubscribe's close(s.Send): a send on a closed channel
	// would panic, and Publish also runs on the sweeper goroutine where no
	// HTTP recovery middleware guards the process.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[meetingID] {
		select {
		case s.Send <- raw:
		default:
			h.log.Warn("subscriber send buffer full", zap.String("user_id", s.UserID))
		}
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *Hub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// SubscriberCount returns number of subscribers for a meeting (for debugging).
func (h *Hub) SubscriberCount(meetingID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[meetingID])
}
