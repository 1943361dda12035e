package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Notification is an in-app notification row
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SchoolID  *int64    `json:"school_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationStore manages in-app notifications
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a notification store over an existing pool
func NewNotificationStore(db *sql.DB) (*NotificationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &NotificationStore{db: db}, nil
}

// ListForUser returns a user's notifications, newest first
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, school_id, title, body, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.SchoolID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkAllRead flags every unread notification for the user and returns how
// many were updated.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
