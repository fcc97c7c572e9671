// Package store holds notification read-state. The in-memory store is the
// default; the Postgres store is wired in when durability across restarts
// is wanted.
package store

import (
	"context"
	"errors"

	"chat-relay/internal/models"
)

// ErrNotFound is returned when a notification id does not exist or is not
// addressed to the acknowledging user.
var ErrNotFound = errors.New("notification not found")

type NotificationStore interface {
	// Save records a freshly created notification. Saving an id twice is
	// a no-op; notifications are immutable apart from read-state.
	Save(ctx context.Context, n *models.Notification) error
	// MarkRead flips read-state for a notification addressed to userID
	// (or to everyone).
	MarkRead(ctx context.Context, id, userID string) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	Close() error
}
