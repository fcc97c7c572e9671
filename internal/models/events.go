package models

type EventType string

// Inbound events (client -> server).
const (
	EventJoinRoom         EventType = "joinRoom"
	EventLeaveRoom        EventType = "leaveRoom"
	EventSendMessage      EventType = "sendMessage"
	EventReadNotification EventType = "readNotification"
)

// Outbound events (server -> client).
const (
	EventConnectionState EventType = "connectionStateChange"
	EventRoomUpdate      EventType = "roomUpdate"
	EventChatMessage     EventType = "chatMessage"
	EventNotification    EventType = "notification"
	EventError           EventType = "error"
)

// ClientEvent is the single inbound frame. Fields beyond Type are populated
// depending on the event; unknown fields are ignored.
type ClientEvent struct {
	Type           EventType `json:"type"`
	RoomID         string    `json:"roomId,omitempty"`
	Text           string    `json:"text,omitempty"`
	NotificationID string    `json:"notificationId,omitempty"`
}

type ConnectionState struct {
	Connected bool `json:"connected"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ServerEvent is the single outbound frame; exactly one payload field is set
// for a given Type.
type ServerEvent struct {
	Type         EventType        `json:"type"`
	State        *ConnectionState `json:"state,omitempty"`
	Room         *Room            `json:"room,omitempty"`
	Message      *Message         `json:"message,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
	Error        *ErrorPayload    `json:"error,omitempty"`
}
