package store

import (
	"context"
	"sync"

	"chat-relay/internal/models"
)

// MemoryStore keeps notifications for the lifetime of the process.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*models.Notification),
	}
}

func (s *MemoryStore) Save(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return nil
	}
	stored := *n
	s.notifications[n.ID] = &stored
	return nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	if n.TargetUserID != userID && n.TargetUserID != models.TargetAll {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
