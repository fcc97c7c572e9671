package relay

import (
	"crypto/rand"
	"fmt"

	"chat-relay/internal/models"
)

// Sender is the outbound half of a connection. Send must not block: it
// reports false when the connection cannot accept the event, which the hub
// treats as a dead connection. Close releases the transport resources and
// must be safe to call once per session.
type Sender interface {
	Send(ev models.ServerEvent) bool
	Close()
}

// Session binds one transport-level connection to an identity. One identity
// may hold several concurrent sessions; deliveries to the identity fan out
// to all of them.
type Session struct {
	id       string
	identity models.Identity
	sender   Sender
}

func NewSession(identity models.Identity, sender Sender) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	return &Session{id: id, identity: identity, sender: sender}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Identity() models.Identity {
	return s.identity
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
