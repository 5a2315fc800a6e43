package core

import (
	"context"
	"fmt"

	"github.com/ABCMilioli/api-control/internal/model"
	"github.com/ABCMilioli/api-control/internal/platform"
)

// NotificationService stores best-effort in-app notices. Callers are expected
// to log and discard errors; a failed notice never fails the operation that
// produced it.
type NotificationService struct {
	db DB
}

func NewNotificationService(db DB) *NotificationService {
	return &NotificationService{db: db}
}

// KeyExpired records a one-per-key expiry notice. Repeated rejections of the
// same expired key are deduplicated by the unique index on (kind, api_key_id).
func (s *NotificationService) KeyExpired(ctx context.Context, apiKeyID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, kind, api_key_id, message, created_at)
		VALUES ($1, 'key_expired', $2, $3, now())
		ON CONFLICT (kind, api_key_id) DO NOTHING`,
		platform.NewID(), apiKeyID, fmt.Sprintf("API key %s has expired", apiKeyID),
	)
	if err != nil {
		return fmt.Errorf("insert key expiry notification: %w", err)
	}
	return nil
}

// List retrieves notifications, newest first, with cursor-based pagination.
func (s *NotificationService) List(ctx context.Context, limit int, cursor string) ([]model.Notification, bool, error) {
	query := `SELECT id, kind, api_key_id, message, created_at FROM notifications`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` WHERE id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.APIKeyID, &n.Message, &n.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate notifications: %w", err)
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	return items, hasMore, nil
}
