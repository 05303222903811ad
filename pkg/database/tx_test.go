package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type namedQuerier struct{ name string }

func (q *namedQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *namedQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (q *namedQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func TestConnPrefersBoundTransaction(t *testing.T) {
	pool := &namedQuerier{name: "pool"}
	tx := &namedQuerier{name: "tx"}

	assert.Same(t, pool, Conn(context.Background(), pool))

	ctx := WithQuerier(context.Background(), tx)
	assert.Same(t, tx, Conn(ctx, pool))
}

func TestNestedRunJoinsOuterTransaction(t *testing.T) {
	// db is nil: a nested call must never try to begin a new transaction
	m := NewTxManager(nil)
	outer := &namedQuerier{name: "outer"}
	ctx := WithQuerier(context.Background(), outer)

	called := false
	err := m.DoSerializable(ctx, func(ctx context.Context) error {
		called = true
		assert.Same(t, outer, Conn(ctx, nil))
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "bookings_no_overlap")
	assert.Contains(t, schemaSQL, "tstzrange(scheduled_at, ends_at, '[)')")
}
