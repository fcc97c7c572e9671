// Package relay implements the real-time core of the chat server: the
// connection registry, room membership table, message relay, and mention
// notification deriver. All shared state is owned by a single Hub goroutine;
// every mutation enters through a channel and runs to completion before the
// next one starts, so compound updates never interleave.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/store"
	"chat-relay/pkg/logger"

	"github.com/google/uuid"
)

// Responder is the external AI collaborator consulted for @AI mentions.
type Responder interface {
	Reply(ctx context.Context, roomID, senderID, text string) (string, error)
}

type inbound struct {
	sess *Session
	ev   models.ClientEvent
}

type aiReply struct {
	roomID string
	text   string
}

type Hub struct {
	register   chan *Session
	unregister chan *Session
	inbound    chan inbound
	replies    chan aiReply

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Owned exclusively by the Run goroutine.
	sessions map[string]*Session            // session id -> session
	byUser   map[string]map[string]*Session // user id -> session id -> session
	names    map[string]map[string]struct{} // username -> user ids, for mention resolution
	rooms    map[string]map[string]struct{} // room id -> member user ids
	joined   map[string]map[string]struct{} // user id -> joined room ids

	store     store.NotificationStore
	responder Responder

	sessionCount atomic.Int64
	roomCount    atomic.Int64
}

// NewHub creates a hub backed by the given notification store. A nil
// responder disables @AI forwarding.
func NewHub(st store.NotificationStore, responder Responder) *Hub {
	return &Hub{
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbound:    make(chan inbound),
		replies:    make(chan aiReply),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		sessions:   make(map[string]*Session),
		byUser:     make(map[string]map[string]*Session),
		names:      make(map[string]map[string]struct{}),
		rooms:      make(map[string]map[string]struct{}),
		joined:     make(map[string]map[string]struct{}),
		store:      st,
		responder:  responder,
	}
}

// Run processes hub events one at a time until Shutdown is called. It should
// be started in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.shutdown:
			h.closeSessions()
			return

		case s := <-h.register:
			h.handleRegister(s)

		case s := <-h.unregister:
			h.handleUnregister(s)

		case in := <-h.inbound:
			h.dispatch(in.sess, in.ev)

		case r := <-h.replies:
			h.relayReply(r)
		}
	}
}

// Register records a new session. The session's connection receives a
// connectionStateChange event once registration has been processed.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister removes a session. Triggered by transport disconnect and never
// refused; cleanup of the identity's room memberships happens here.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Dispatch hands one decoded client event to the hub.
func (h *Hub) Dispatch(s *Session, ev models.ClientEvent) {
	select {
	case h.inbound <- inbound{sess: s, ev: ev}:
	case <-h.done:
	}
}

// Shutdown stops the hub loop and closes all live sessions.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

// Done is closed once the hub loop has exited.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Stats reports current session and room counts. Safe from any goroutine.
func (h *Hub) Stats() (sessions, rooms int) {
	return int(h.sessionCount.Load()), int(h.roomCount.Load())
}

// dispatch routes one inbound event. A panic while handling a single event
// is confined here: it is logged, reported to the origin session, and the
// loop keeps serving everyone else.
func (h *Hub) dispatch(s *Session, ev models.ClientEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling %s event from %s: %v", ev.Type, s.identity.UserID, r)
			h.sendError(s, "internal error")
		}
	}()

	if _, registered := h.sessions[s.id]; !registered {
		if ev.Type == models.EventSendMessage {
			h.sendError(s, "not registered")
		}
		return
	}

	switch ev.Type {
	case models.EventJoinRoom:
		h.handleJoin(s, ev.RoomID)
	case models.EventLeaveRoom:
		h.handleLeave(s, ev.RoomID)
	case models.EventSendMessage:
		h.handleSend(s, ev.RoomID, ev.Text)
	case models.EventReadNotification:
		h.handleRead(s, ev.NotificationID)
	case "":
		h.sendError(s, "malformed event")
	default:
		h.sendError(s, fmt.Sprintf("unknown event type %q", ev.Type))
	}
}

func (h *Hub) handleRegister(s *Session) {
	uid := s.identity.UserID
	h.sessions[s.id] = s
	if h.byUser[uid] == nil {
		h.byUser[uid] = make(map[string]*Session)
	}
	h.byUser[uid][s.id] = s
	if h.names[s.identity.Username] == nil {
		h.names[s.identity.Username] = make(map[string]struct{})
	}
	h.names[s.identity.Username][uid] = struct{}{}
	h.sessionCount.Add(1)

	s.sender.Send(models.ServerEvent{
		Type:  models.EventConnectionState,
		State: &models.ConnectionState{Connected: true},
	})
	logger.Info("User %s (%s) connected, session %s", s.identity.Username, uid, s.id)
}

func (h *Hub) handleUnregister(s *Session) {
	if _, ok := h.sessions[s.id]; !ok {
		return
	}
	delete(h.sessions, s.id)
	h.sessionCount.Add(-1)

	uid := s.identity.UserID
	delete(h.byUser[uid], s.id)
	s.sender.Close()

	if len(h.byUser[uid]) > 0 {
		logger.Debug("Session %s closed, user %s still online", s.id, uid)
		return
	}

	// Last session of the identity: purge it everywhere. Each room is
	// handled independently so one bad room cannot strand the others.
	delete(h.byUser, uid)
	delete(h.names[s.identity.Username], uid)
	if len(h.names[s.identity.Username]) == 0 {
		delete(h.names, s.identity.Username)
	}
	for roomID := range h.joined[uid] {
		h.removeFromRoom(uid, roomID)
	}
	delete(h.joined, uid)
	logger.Info("User %s (%s) disconnected", s.identity.Username, uid)
}

func (h *Hub) handleJoin(s *Session, roomID string) {
	if roomID == "" {
		h.sendError(s, "joinRoom requires a roomId")
		return
	}

	uid := s.identity.UserID
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
		h.roomCount.Add(1)
		logger.Debug("Room %s created", roomID)
	}
	members[uid] = struct{}{}
	if h.joined[uid] == nil {
		h.joined[uid] = make(map[string]struct{})
	}
	h.joined[uid][roomID] = struct{}{}

	// Re-joins are a no-op on membership but still re-broadcast the roster.
	h.broadcastRoster(roomID)
}

func (h *Hub) handleLeave(s *Session, roomID string) {
	uid := s.identity.UserID
	if _, member := h.rooms[roomID][uid]; !member {
		return
	}
	delete(h.joined[uid], roomID)
	h.removeFromRoom(uid, roomID)
}

func (h *Hub) handleSend(s *Session, roomID, text string) {
	if roomID == "" || text == "" {
		h.sendError(s, "sendMessage requires a roomId and text")
		return
	}

	uid := s.identity.UserID
	if _, member := h.joined[uid][roomID]; !member {
		h.sendError(s, fmt.Sprintf("not a member of room %q", roomID))
		return
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		SenderID:  uid,
		RoomID:    roomID,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	h.broadcastRoom(roomID, models.ServerEvent{Type: models.EventChatMessage, Message: &msg})
	h.deriveMentions(s.identity, &msg)
}

func (h *Hub) handleRead(s *Session, notificationID string) {
	if notificationID == "" {
		h.sendError(s, "readNotification requires a notificationId")
		return
	}

	err := h.store.MarkRead(context.Background(), notificationID, s.identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		h.sendError(s, "unknown notification")
		return
	}
	if err != nil {
		logger.Error("Failed to mark notification %s read: %v", notificationID, err)
		h.sendError(s, "failed to mark notification read")
	}
}

func (h *Hub) relayReply(r aiReply) {
	if _, ok := h.rooms[r.roomID]; !ok {
		return
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		SenderID:  models.AIUserID,
		RoomID:    r.roomID,
		Text:      r.text,
		Timestamp: time.Now().UnixMilli(),
	}
	h.broadcastRoom(r.roomID, models.ServerEvent{Type: models.EventChatMessage, Message: &msg})
}

func (h *Hub) sendError(s *Session, message string) {
	s.sender.Send(models.ServerEvent{
		Type:  models.EventError,
		Error: &models.ErrorPayload{Message: message},
	})
}

// deliverToUser fans an event out to every session of an identity.
func (h *Hub) deliverToUser(uid string, ev models.ServerEvent) {
	var dead []*Session
	for _, s := range h.byUser[uid] {
		if !s.sender.Send(ev) {
			dead = append(dead, s)
		}
	}
	h.drop(dead)
}

func (h *Hub) drop(dead []*Session) {
	for _, s := range dead {
		logger.Warn("Dropping session %s for %s: send buffer full", s.id, s.identity.Username)
		h.handleUnregister(s)
	}
}

func (h *Hub) closeSessions() {
	logger.Info("Closing %d client sessions", len(h.sessions))

	note := models.Notification{
		ID:           uuid.NewString(),
		Kind:         models.NotificationSystem,
		TargetUserID: models.TargetAll,
		Message:      "server shutting down",
		Timestamp:    time.Now().UnixMilli(),
	}
	for _, s := range h.sessions {
		s.sender.Send(models.ServerEvent{Type: models.EventNotification, Notification: &note})
		s.sender.Send(models.ServerEvent{
			Type:  models.EventConnectionState,
			State: &models.ConnectionState{Connected: false},
		})
		s.sender.Close()
	}
}
