package store

import (
	"context"
	"database/sql"
	"fmt"

	"elixirblog/internal/models"
)

// SubscriberStore persists newsletter subscribers.
type SubscriberStore struct {
	db *sql.DB
}

// NewSubscriberStore returns a new SubscriberStore.
func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

// Insert adds email unless it is already present. The unique index on
// email makes the check atomic, so concurrent submissions of one address
// produce exactly one created=true.
func (s *SubscriberStore) Insert(ctx context.Context, email string) (*models.Subscriber, bool, error) {
	var sub models.Subscriber
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscribers (email) VALUES ($1)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, created_at
	`, email).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert subscriber: %w", err)
	}
	return &sub, true, nil
}
