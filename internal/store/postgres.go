package store

import (
	"context"
	"errors"
	"fmt"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists notification read-state across restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := ensureSchema(pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to notification store successfully")
	return &PostgresStore{pool: pool}, nil
}

func ensureSchema(pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS notifications (
			id             TEXT PRIMARY KEY,
			kind           TEXT NOT NULL,
			target_user_id TEXT NOT NULL,
			source_user_id TEXT,
			message        TEXT NOT NULL,
			created_at     BIGINT NOT NULL,
			read           BOOLEAN NOT NULL DEFAULT FALSE
		)`

	if _, err := pool.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, kind, target_user_id, source_user_id, message, created_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		n.ID, string(n.Kind), n.TargetUserID, n.SourceUserID, n.Message, n.Timestamp, n.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND (target_user_id = $2 OR target_user_id = $3)`

	tag, err := s.pool.Exec(ctx, query, id, userID, models.TargetAll)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Notification, error) {
	query := `
		SELECT id, kind, target_user_id, source_user_id, message, created_at, read
		FROM notifications WHERE id = $1`

	n := &models.Notification{}
	var kind string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &kind, &n.TargetUserID, &n.SourceUserID, &n.Message, &n.Timestamp, &n.Read,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Kind = models.NotificationKind(kind)
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
