package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ABCMilioli/api-control/internal/model"
	"github.com/ABCMilioli/api-control/internal/platform"
)

// ClientService manages the clients that API keys are issued to.
type ClientService struct {
	db     DB
	events EventSink
}

func NewClientService(db DB, events EventSink) *ClientService {
	return &ClientService{db: db, events: events}
}

func (s *ClientService) Create(ctx context.Context, name, email string) (*model.Client, error) {
	id := platform.NewID()

	_, err := s.db.Exec(ctx,
		`INSERT INTO clients (id, name, email, is_active, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), true, now(), now())`,
		id, name, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Name:       model.EventClientCreated,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"client_id": client.ID, "name": client.Name},
	})
	return client, nil
}

func (s *ClientService) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	var email *string
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, is_active, created_at, updated_at FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	if email != nil {
		c.Email = *email
	}
	return &c, nil
}

// List retrieves clients with cursor-based pagination.
func (s *ClientService) List(ctx context.Context, limit int, cursor string) ([]model.Client, bool, error) {
	query := `SELECT id, name, email, is_active, created_at, updated_at FROM clients WHERE 1=1`
	args := []any{}
	argIdx := 1

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
		return nil, false, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var email *string
		if err := rows.Scan(&c.ID, &c.Name, &email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan client: %w", err)
		}
		if email != nil {
			c.Email = *email
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate clients: %w", err)
	}

	hasMore := len(clients) > limit
	if hasMore {
		clients = clients[:limit]
	}
	return clients, hasMore, nil
}

func (s *ClientService) Update(ctx context.Context, id, name, email string, isActive bool) (*model.Client, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE clients SET name = $1, email = NULLIF($2, ''), is_active = $3, updated_at = now() WHERE id = $4`,
		name, email, isActive, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Name:       model.EventClientUpdated,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"client_id": client.ID, "name": client.Name, "is_active": client.IsActive},
	})
	return client, nil
}

// Delete removes a client and, via foreign key cascades, its keys and their
// installations.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.events.Publish(model.Event{
		Name:       model.EventClientDeleted,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"client_id": id},
	})
	return nil
}
