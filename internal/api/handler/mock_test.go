package handler

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/ABCMilioli/api-control/internal/model"
)

// handlerMockDB implements core.DB for handler tests.
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *handlerMockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// handlerMockTx implements pgx.Tx for handler tests that reach the admission
// transaction.
type handlerMockTx struct {
	mock.Mock
}

func (m *handlerMockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockTx) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockTx) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *handlerMockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *handlerMockTx) Rollback(ctx context.Context) error {
	m.Called(ctx)
	return nil
}

func (m *handlerMockTx) Begin(ctx context.Context) (pgx.Tx, error) { return m, nil }
func (m *handlerMockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *handlerMockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *handlerMockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *handlerMockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *handlerMockTx) Conn() *pgx.Conn { return nil }

// mockRow implements pgx.Row for handler tests.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// mockRows implements pgx.Rows, yielding one row per scan function.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	fn := m.scanFuncs[m.callIndex]
	m.callIndex++
	return fn(dest...)
}

func (m *mockRows) Err() error                                   { return nil }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// noopSink discards events. Handler tests assert on HTTP behaviour, not
// dispatch.
type noopSink struct{}

func (noopSink) Publish(model.Event) {}
