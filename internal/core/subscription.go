package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ABCMilioli/api-control/internal/model"
	"github.com/ABCMilioli/api-control/internal/platform"
)

const subscriptionColumns = `id, url, secret, events, is_active, max_retries, timeout_ms, created_at, updated_at`

// SubscriptionService manages webhook subscriptions and resolves the active
// set for an event name on behalf of the dispatcher.
type SubscriptionService struct {
	db DB
}

func NewSubscriptionService(db DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) Create(ctx context.Context, sub *model.WebhookSubscription) (*model.WebhookSubscription, error) {
	id := platform.NewID()
	_, err := s.db.Exec(ctx, `
		INSERT INTO webhook_subscriptions (id, url, secret, events, is_active, max_retries, timeout_ms, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, now(), now())`,
		id, sub.URL, sub.Secret, sub.Events, sub.IsActive, sub.MaxRetries, sub.TimeoutMs,
	)
	if err != nil {
		return nil, fmt.Errorf("insert webhook subscription: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SubscriptionService) GetByID(ctx context.Context, id string) (*model.WebhookSubscription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM webhook_subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get webhook subscription %s: %w", id, err)
	}
	return sub, nil
}

// List retrieves subscriptions with cursor-based pagination.
func (s *SubscriptionService) List(ctx context.Context, limit int, cursor string) ([]model.WebhookSubscription, bool, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM webhook_subscriptions`
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
		return nil, false, fmt.Errorf("list webhook subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan webhook subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate webhook subscriptions: %w", err)
	}

	hasMore := len(subs) > limit
	if hasMore {
		subs = subs[:limit]
	}
	return subs, hasMore, nil
}

func (s *SubscriptionService) Update(ctx context.Context, sub *model.WebhookSubscription) (*model.WebhookSubscription, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE webhook_subscriptions
		SET url = $1, secret = NULLIF($2, ''), events = $3, is_active = $4, max_retries = $5, timeout_ms = $6, updated_at = now()
		WHERE id = $7`,
		sub.URL, sub.Secret, sub.Events, sub.IsActive, sub.MaxRetries, sub.TimeoutMs, sub.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update webhook subscription %s: %w", sub.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, sub.ID)
}

func (s *SubscriptionService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete webhook subscription %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveForEvent returns all active subscriptions whose event filter contains
// the given event name.
func (s *SubscriptionService) ActiveForEvent(ctx context.Context, eventName string) ([]model.WebhookSubscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM webhook_subscriptions WHERE is_active = true AND $1 = ANY(events)`,
		eventName,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve subscriptions for %s: %w", eventName, err)
	}
	defer rows.Close()

	var subs []model.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook subscriptions: %w", err)
	}
	return subs, nil
}

func scanSubscription(row interface{ Scan(dest ...any) error }) (*model.WebhookSubscription, error) {
	var sub model.WebhookSubscription
	var secret *string
	err := row.Scan(&sub.ID, &sub.URL, &secret, &sub.Events, &sub.IsActive,
		&sub.MaxRetries, &sub.TimeoutMs, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		sub.Secret = *secret
	}
	return &sub, nil
}
