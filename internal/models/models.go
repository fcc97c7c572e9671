package models

// Identity is the (userId, username) pair representing a chat participant,
// independent of any specific connection. It is supplied by the external auth
// collaborator at handshake time, or synthesized as a guest identity.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// AIUserID is the reserved sender id for messages relayed from the external
// AI responder. "@AI" mentions never resolve to a real user.
const AIUserID = "AI"

// Room is the outward-facing roster projection of a room: derived entirely
// from current connections, never persisted.
type Room struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// Message is a relayed chat message. The server is the sole authority for ID
// and Timestamp; client-supplied values are ignored.
type Message struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	RoomID    string `json:"roomId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

type NotificationKind string

const (
	// NotificationMessage is part of the shared kind vocabulary with the
	// external store and clients; the relay itself only ever produces
	// MENTION and SYSTEM notifications.
	NotificationMessage NotificationKind = "MESSAGE"
	NotificationMention NotificationKind = "MENTION"
	NotificationSystem  NotificationKind = "SYSTEM"
)

// TargetAll addresses a notification to every connected client. Only SYSTEM
// notifications use it; mentions always target a concrete identity.
const TargetAll = "all"

// Notification is created once and mutated only by a read acknowledgement.
type Notification struct {
	ID           string           `json:"id"`
	Kind         NotificationKind `json:"kind"`
	TargetUserID string           `json:"targetUserId"`
	SourceUserID string           `json:"sourceUserId,omitempty"`
	Message      string           `json:"message"`
	Timestamp    int64            `json:"timestamp"`
	Read         bool             `json:"read"`
}
