package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ABCMilioli/api-control/internal/model"
)

// InstallationService reads and administers installation records. Creation
// happens only through AdmissionService.
type InstallationService struct {
	db     DB
	events EventSink
}

func NewInstallationService(db DB, events EventSink) *InstallationService {
	return &InstallationService{db: db, events: events}
}

func (s *InstallationService) GetByID(ctx context.Context, id string) (*model.Installation, error) {
	var inst model.Installation
	var userAgent, location *string
	err := s.db.QueryRow(ctx, `
		SELECT id, api_key_id, remote_address, user_agent, location, active, success, occurred_at
		FROM installations WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.APIKeyID, &inst.RemoteAddress, &userAgent, &location,
		&inst.Active, &inst.Success, &inst.OccurredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get installation %s: %w", id, err)
	}
	if userAgent != nil {
		inst.UserAgent = *userAgent
	}
	if location != nil {
		inst.Location = *location
	}
	return &inst, nil
}

// ListByKey retrieves installations for an API key, newest first.
func (s *InstallationService) ListByKey(ctx context.Context, apiKeyID string, limit int, cursor string) ([]model.Installation, bool, error) {
	query := `SELECT id, api_key_id, remote_address, user_agent, location, active, success, occurred_at
		FROM installations WHERE api_key_id = $1`
	args := []any{apiKeyID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY occurred_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list installations: %w", err)
	}
	defer rows.Close()

	var items []model.Installation
	for rows.Next() {
		var inst model.Installation
		var userAgent, location *string
		if err := rows.Scan(&inst.ID, &inst.APIKeyID, &inst.RemoteAddress, &userAgent, &location,
			&inst.Active, &inst.Success, &inst.OccurredAt); err != nil {
			return nil, false, fmt.Errorf("scan installation: %w", err)
		}
		if userAgent != nil {
			inst.UserAgent = *userAgent
		}
		if location != nil {
			inst.Location = *location
		}
		items = append(items, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate installations: %w", err)
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	return items, hasMore, nil
}

// Deactivate releases an installation slot by hand and refreshes the owning
// key's cached counter in the same transaction.
func (s *InstallationService) Deactivate(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin installation deactivate: %w", err)
	}
	defer tx.Rollback(ctx)

	var apiKeyID string
	err = tx.QueryRow(ctx,
		`UPDATE installations SET active = false WHERE id = $1 AND active = true RETURNING api_key_id`, id,
	).Scan(&apiKeyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("deactivate installation %s: %w", id, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE api_keys
		SET current_installations = (SELECT count(*) FROM installations WHERE api_key_id = $1 AND active = true),
		    updated_at = now()
		WHERE id = $1`, apiKeyID,
	)
	if err != nil {
		return fmt.Errorf("update api key counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit installation deactivate: %w", err)
	}

	s.events.Publish(model.Event{
		Name:       model.EventInstallationDeactivated,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"installation_id": id, "api_key_id": apiKeyID},
	})
	return nil
}
