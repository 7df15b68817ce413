package relay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client-to-server events.
const (
	EventJoinConversation = "join_conversation"
	EventSendMessage      = "send_message"
	EventTyping           = "typing"
	EventStopTyping       = "stop_typing"
)

// Server-to-client events.
const (
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
)

// Envelope is the wire format for relay frames in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	ConversationID string `json:"conversationId"`
}

type channelPayload struct {
	ConversationID string `json:"conversationId"`
}

type metricsRecorder interface {
	RelaySessionOpened()
	RelaySessionClosed()
	RelayPublished()
}

// Session is one connected client. Frames destined for the client are pushed
// onto Send by the hub; a session that cannot keep up is dropped.
type Session struct {
	ID     string
	UserID string
	Send   chan []byte

	channels map[string]bool
}

// Hub owns the registry of sessions and their channel subscriptions. All
// state is guarded by the mutex; there are no package-level registries.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]bool
	channels map[string]map[*Session]bool

	sendBuffer int
	logger     *zap.Logger
	metrics    metricsRecorder
}

// NewHub creates an empty relay hub.
func NewHub(sendBuffer int, metrics metricsRecorder, logger *zap.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:   make(map[*Session]bool),
		channels:   make(map[string]map[*Session]bool),
		sendBuffer: sendBuffer,
		logger:     logger,
		metrics:    metrics,
	}
}

// OpenSession registers a new session for the given user. An empty user id
// marks an anonymous session.
func (h *Hub) OpenSession(userID string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Send:     make(chan []byte, h.sendBuffer),
		channels: make(map[string]bool),
	}

	h.mu.Lock()
	h.sessions[s] = true
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RelaySessionOpened()
	}
	return s
}

// CloseSession removes the session from every channel and the registry.
// Safe to call more than once.
func (h *Hub) CloseSession(s *Session) {
	h.mu.Lock()
	if !h.sessions[s] {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for channel := range s.channels {
		h.dropFromChannel(s, channel)
	}
	close(s.Send)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RelaySessionClosed()
	}
}

// Join subscribes the session to a conversation channel.
func (h *Hub) Join(s *Session, channel string) {
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.sessions[s] {
		return
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Session]bool)
	}
	h.channels[channel][s] = true
	s.channels[channel] = true
}

// Leave unsubscribes the session from a channel.
func (h *Hub) Leave(s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromChannel(s, channel)
	delete(s.channels, channel)
}

// Publish fans an event out to every subscriber of the channel except the
// publishing session. Delivery is at most once; subscribers whose buffer is
// full are disconnected.
func (h *Hub) Publish(channel string, from *Session, event string, data json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Warn("failed to encode relay frame", zap.String("event", event), zap.Error(err))
		return
	}

	// Sends happen under the read lock: CloseSession closes Send under the
	// write lock, so a close can never interleave with a send here. Slow
	// sessions are collected and dropped once the lock is released.
	h.mu.RLock()
	var slow []*Session
	reached := 0
	for s := range h.channels[channel] {
		if s == from {
			continue
		}
		reached++
		select {
		case s.Send <- frame:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("dropping slow relay session",
			zap.String("session_id", s.ID),
			zap.String("channel", channel))
		h.CloseSession(s)
	}

	if h.metrics != nil && reached > 0 {
		h.metrics.RelayPublished()
	}
}

// HandleFrame dispatches one client frame. Unknown events are ignored.
func (h *Hub) HandleFrame(s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("failed to parse relay frame", zap.String("session_id", s.ID), zap.Error(err))
		return
	}

	switch env.Event {
	case EventJoinConversation:
		var payload joinPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ConversationID == "" {
			return
		}
		h.Join(s, payload.ConversationID)
	case EventSendMessage:
		h.relay(s, env.Data, EventReceiveMessage)
	case EventTyping:
		h.relay(s, env.Data, EventUserTyping)
	case EventStopTyping:
		h.relay(s, env.Data, EventUserStopTyping)
	default:
		h.logger.Debug("ignoring unknown relay event", zap.String("event", env.Event))
	}
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) relay(from *Session, data json.RawMessage, outEvent string) {
	var payload channelPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID == "" {
		return
	}
	h.Publish(payload.ConversationID, from, outEvent, data)
}

// dropFromChannel must be called with the lock held.
func (h *Hub) dropFromChannel(s *Session, channel string) {
	if subs := h.channels[channel]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}
