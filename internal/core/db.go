package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ABCMilioli/api-control/internal/model"
)

// DB defines the database operations used by core services.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventSink receives domain events emitted by core services. The sink must
// not block: delivery happens asynchronously and its outcome never affects
// the operation that produced the event.
type EventSink interface {
	Publish(event model.Event)
}
