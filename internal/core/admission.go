package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ABCMilioli/api-control/internal/geo"
	"github.com/ABCMilioli/api-control/internal/model"
	"github.com/ABCMilioli/api-control/internal/platform"
)

// AdmissionService decides whether a presented API key may activate a new
// installation slot. Capacity is enforced with FIFO eviction: when a key is
// at max_installations, the oldest active installation is deactivated to
// make room for the new one.
type AdmissionService struct {
	db            DB
	events        EventSink
	notifications *NotificationService
	logger        zerolog.Logger
}

func NewAdmissionService(db DB, events EventSink, notifications *NotificationService, logger zerolog.Logger) *AdmissionService {
	return &AdmissionService{db: db, events: events, notifications: notifications, logger: logger}
}

// Validate checks the presented key and, if it is active and unexpired,
// admits a new installation. Eviction, insertion, and the cached counter
// update run in a single transaction with the key row locked, so two
// concurrent calls against the same key cannot both slip under the capacity
// check. Rejections return ErrKeyInactive or ErrKeyExpired.
func (s *AdmissionService) Validate(ctx context.Context, presentedKey, remoteAddr, userAgent string) (*model.AdmissionResult, error) {
	var (
		key        model.APIKey
		clientName string
	)
	err := s.db.QueryRow(ctx, `
		SELECT k.id, k.client_id, c.name, k.max_installations, k.expires_at
		FROM api_keys k
		JOIN clients c ON c.id = k.client_id
		WHERE k.key = $1 AND k.is_active = true`, presentedKey,
	).Scan(&key.ID, &key.ClientID, &clientName, &key.MaxInstallations, &key.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordFailure(ctx, model.SentinelKeyID, remoteAddr, userAgent, "unknown or inactive key")
			return nil, ErrKeyInactive
		}
		return nil, fmt.Errorf("lookup api key: %w", err)
	}

	if key.Expired(time.Now()) {
		s.recordFailure(ctx, key.ID, remoteAddr, userAgent, "key expired")
		if err := s.notifications.KeyExpired(ctx, key.ID); err != nil {
			s.logger.Warn().Err(err).Str("api_key_id", key.ID).Msg("key expiry notification failed")
		}
		s.events.Publish(model.Event{
			Name:       model.EventKeyExpired,
			OccurredAt: time.Now().UTC(),
			Payload: map[string]any{
				"api_key_id": key.ID,
				"client_id":  key.ClientID,
				"expires_at": key.ExpiresAt,
			},
		})
		return nil, ErrKeyExpired
	}

	result, err := s.admit(ctx, &key, clientName, remoteAddr, userAgent)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"api_key_id":               key.ID,
		"client_id":                key.ClientID,
		"client_name":              clientName,
		"installation_id":          result.InstallationID,
		"replaced_installation_id": result.ReplacedInstallationID,
		"active_installations":     result.ActiveCount,
		"max_installations":        result.MaxInstallations,
		"remote_address":           remoteAddr,
	}
	s.events.Publish(model.Event{Name: model.EventInstallationSuccess, OccurredAt: time.Now().UTC(), Payload: payload})
	if result.ReplacedInstallationID != nil {
		s.events.Publish(model.Event{Name: model.EventInstallationLimitReached, OccurredAt: time.Now().UTC(), Payload: payload})
	}

	return result, nil
}

// admit runs the capacity check, FIFO eviction, installation insert, and
// cached counter recompute as one atomic unit.
func (s *AdmissionService) admit(ctx context.Context, key *model.APIKey, clientName, remoteAddr, userAgent string) (*model.AdmissionResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin admission: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the key row so concurrent admissions for the same key serialize,
	// and re-read capacity in case it changed since the unlocked lookup.
	err = tx.QueryRow(ctx,
		`SELECT max_installations FROM api_keys WHERE id = $1 FOR UPDATE`, key.ID,
	).Scan(&key.MaxInstallations)
	if err != nil {
		return nil, fmt.Errorf("lock api key %s: %w", key.ID, err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM installations WHERE api_key_id = $1 AND active = true ORDER BY occurred_at ASC, id ASC`, key.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active installations: %w", err)
	}
	var active []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan installation id: %w", err)
		}
		active = append(active, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active installations: %w", err)
	}

	var replaced *string
	if len(active) >= key.MaxInstallations {
		// Evict oldest-first until one slot is free. Normally this is a
		// single record; lowering max_installations can leave more.
		evicted := active[:len(active)-key.MaxInstallations+1]
		_, err := tx.Exec(ctx, `UPDATE installations SET active = false WHERE id = ANY($1)`, evicted)
		if err != nil {
			return nil, fmt.Errorf("evict installations: %w", err)
		}
		replaced = &evicted[0]
	}

	installationID := platform.NewID()
	_, err = tx.Exec(ctx, `
		INSERT INTO installations (id, api_key_id, remote_address, user_agent, location, active, success, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), true, true, now())`,
		installationID, key.ID, remoteAddr, userAgent, geo.Locate(remoteAddr),
	)
	if err != nil {
		return nil, fmt.Errorf("insert installation: %w", err)
	}

	// The cached counter is recomputed inside the same transaction as the
	// eviction so it cannot drift under concurrent admissions.
	var activeCount int
	err = tx.QueryRow(ctx, `
		UPDATE api_keys
		SET current_installations = (SELECT count(*) FROM installations WHERE api_key_id = $1 AND active = true),
		    last_used = now(), updated_at = now()
		WHERE id = $1
		RETURNING current_installations`, key.ID,
	).Scan(&activeCount)
	if err != nil {
		return nil, fmt.Errorf("update api key counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit admission: %w", err)
	}

	return &model.AdmissionResult{
		InstallationID:         installationID,
		ReplacedInstallationID: replaced,
		ClientName:             clientName,
		ActiveCount:            activeCount,
		MaxInstallations:       key.MaxInstallations,
	}, nil
}

// recordFailure stores a failed installation record for abuse monitoring and
// publishes installation.failed. Both are best-effort: a storage error here
// must not mask the rejection being reported to the caller.
func (s *AdmissionService) recordFailure(ctx context.Context, apiKeyID, remoteAddr, userAgent, reason string) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO installations (id, api_key_id, remote_address, user_agent, location, active, success, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), false, false, now())`,
		platform.NewID(), apiKeyID, remoteAddr, userAgent, geo.Locate(remoteAddr),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("api_key_id", apiKeyID).Msg("failed to record rejected installation")
	}

	s.events.Publish(model.Event{
		Name:       model.EventInstallationFailed,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"api_key_id":     apiKeyID,
			"remote_address": remoteAddr,
			"reason":         reason,
		},
	})
}
