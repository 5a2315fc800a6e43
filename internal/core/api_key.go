package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ABCMilioli/api-control/internal/model"
	"github.com/ABCMilioli/api-control/internal/platform"
)

// APIKeyService manages API key issuance and administration.
type APIKeyService struct {
	db     DB
	events EventSink
}

func NewAPIKeyService(db DB, events EventSink) *APIKeyService {
	return &APIKeyService{db: db, events: events}
}

// Create generates a new API key for a client. The key string is the secret
// presented by installations; it is stored as issued so administrators can
// redistribute it.
func (s *APIKeyService) Create(ctx context.Context, clientID string, maxInstallations int, expiresAt *time.Time) (*model.APIKey, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "ak_" + hex.EncodeToString(rawBytes)

	id := platform.NewID()
	_, err := s.db.Exec(ctx, `
		INSERT INTO api_keys (id, client_id, key, max_installations, current_installations, is_active, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, true, $5, now(), now())`,
		id, clientID, rawKey, maxInstallations, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}

	key, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Name:       model.EventKeyCreated,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"api_key_id":        key.ID,
			"client_id":         key.ClientID,
			"max_installations": key.MaxInstallations,
			"expires_at":        key.ExpiresAt,
		},
	})
	return key, nil
}

func (s *APIKeyService) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	var k model.APIKey
	err := s.db.QueryRow(ctx, `
		SELECT id, client_id, key, max_installations, current_installations, is_active, expires_at, last_used, created_at, updated_at
		FROM api_keys WHERE id = $1`, id,
	).Scan(&k.ID, &k.ClientID, &k.Key, &k.MaxInstallations, &k.CurrentInstallations,
		&k.IsActive, &k.ExpiresAt, &k.LastUsed, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key %s: %w", id, err)
	}
	return &k, nil
}

// List retrieves API keys with cursor-based pagination, optionally filtered
// by client.
func (s *APIKeyService) List(ctx context.Context, clientID string, limit int, cursor string) ([]model.APIKey, bool, error) {
	query := `SELECT id, client_id, key, max_installations, current_installations, is_active, expires_at, last_used, created_at, updated_at
		FROM api_keys WHERE id != $1`
	args := []any{model.SentinelKeyID}
	argIdx := 2

	if clientID != "" {
		query += fmt.Sprintf(` AND client_id = $%d`, argIdx)
		args = append(args, clientID)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.ClientID, &k.Key, &k.MaxInstallations, &k.CurrentInstallations,
			&k.IsActive, &k.ExpiresAt, &k.LastUsed, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate api keys: %w", err)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

// Update modifies capacity, active flag, and expiry. Deactivating a key
// releases all of its active installation slots in the same transaction.
func (s *APIKeyService) Update(ctx context.Context, id string, maxInstallations int, isActive bool, expiresAt *time.Time) (*model.APIKey, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin api key update: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE api_keys SET max_installations = $1, is_active = $2, expires_at = $3, updated_at = now() WHERE id = $4`,
		maxInstallations, isActive, expiresAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if !isActive {
		_, err = tx.Exec(ctx,
			`UPDATE installations SET active = false WHERE api_key_id = $1 AND active = true`, id,
		)
		if err != nil {
			return nil, fmt.Errorf("deactivate installations for key %s: %w", id, err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE api_keys SET current_installations = 0 WHERE id = $1`, id,
		)
		if err != nil {
			return nil, fmt.Errorf("reset api key counter %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit api key update: %w", err)
	}

	key, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Name:       model.EventKeyUpdated,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"api_key_id":        key.ID,
			"client_id":         key.ClientID,
			"max_installations": key.MaxInstallations,
			"is_active":         key.IsActive,
			"expires_at":        key.ExpiresAt,
		},
	})
	return key, nil
}

// Delete removes a key and its installations (foreign key cascade).
func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.events.Publish(model.Event{
		Name:       model.EventKeyDeleted,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"api_key_id": id},
	})
	return nil
}
