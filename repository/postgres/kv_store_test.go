package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskmaster/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM kv_store`)
	require.NoError(t, err)

	store := NewStore(pool)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Ping(ctx))

	_, err := store.Get(ctx, "tasks")
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, "tasks", []byte(`[{"id":"1","title":"Write"}]`)))
	require.NoError(t, store.Put(ctx, "tasks_id_counter", []byte(`1`)))
	require.NoError(t, store.Put(ctx, "tasks", []byte(`[{"id":"2","title":"Read"}]`)))

	value, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2","title":"Read"}]`, string(value))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, keys)

	require.NoError(t, store.Delete(ctx, "tasks"))
	_, err = store.Get(ctx, "tasks")
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	assert.Error(t, store.Put(ctx, "tasks", []byte("{not json")))
}
