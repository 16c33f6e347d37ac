package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskmaster/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redislib.ParseURL(url)
	require.NoError(t, err)

	store := NewStore(redislib.NewClient(opts), "taskmaster-test:"+uuid.NewString()+":")
	t.Cleanup(func() {
		ctx := context.Background()
		for _, key := range []string{"tasks", "users"} {
			_ = store.Delete(ctx, key)
		}
		_ = store.Close()
	})
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Ping(ctx))

	_, err := store.Get(ctx, "tasks")
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, "tasks", []byte(`[{"id":"1"}]`)))
	require.NoError(t, store.Put(ctx, "users", []byte(`[]`)))
	value, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(value))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, keys)

	require.NoError(t, store.Delete(ctx, "tasks"))
	_, err = store.Get(ctx, "tasks")
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}
