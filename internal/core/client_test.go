package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ABCMilioli/api-control/internal/model"
)

func clientScan(id, name string, email *string, isActive bool) func(dest ...any) error {
	return func(dest ...any) error {
		now := time.Now()
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = name
		*(dest[2].(**string)) = email
		*(dest[3].(*bool)) = isActive
		*(dest[4].(*time.Time)) = now
		*(dest[5].(*time.Time)) = now
		return nil
	}
}

func TestClientService_Create(t *testing.T) {
	db := &mockDB{}
	sink := &captureSink{}
	svc := NewClientService(db, sink)
	ctx := context.Background()

	db.On("Exec", ctx, sqlContains("INSERT INTO clients"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, sqlContains("FROM clients"), mock.Anything).
		Return(&mockRow{scanFunc: clientScan("client-1", "Acme", nil, true)})

	client, err := svc.Create(ctx, "Acme", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme", client.Name)
	assert.Empty(t, client.Email)
	assert.Equal(t, []string{model.EventClientCreated}, sink.names())
	db.AssertExpectations(t)
}

func TestClientService_List_Pagination(t *testing.T) {
	db := &mockDB{}
	sink := &captureSink{}
	svc := NewClientService(db, sink)
	ctx := context.Background()

	email := "ops@acme.example"
	// Three rows against a limit of two: the probe row signals more pages.
	rows := newMockRows(
		clientScan("client-1", "Acme", &email, true),
		clientScan("client-2", "Beta", nil, true),
		clientScan("client-3", "Gamma", nil, false),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	clients, hasMore, err := svc.List(ctx, 2, "")
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, clients, 2)
	assert.Equal(t, "ops@acme.example", clients[0].Email)
}

func TestClientService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	sink := &captureSink{}
	svc := NewClientService(db, sink)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, sink.names())
}
