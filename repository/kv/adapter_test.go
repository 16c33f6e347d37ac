package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/internal/infrastructure/bolt"
	"github.com/fastygo/taskmaster/repository"
)

var errBackendDown = errors.New("backend down")

// flakyStore wraps a real store and fails selected calls.
type flakyStore struct {
	repository.KeyValueStore
	failGet bool
	failPut bool
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet {
		return nil, errBackendDown
	}
	return s.KeyValueStore.Get(ctx, key)
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if s.failPut {
		return errBackendDown
	}
	return s.KeyValueStore.Put(ctx, key, value)
}

func newBoltStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "kv.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newFlakyAdapter(t *testing.T, opts ...Option) (*Adapter, *flakyStore) {
	t.Helper()
	store := &flakyStore{KeyValueStore: newBoltStore(t)}
	return NewAdapter(store, zap.NewNop(), opts...), store
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		raw     string
		failGet bool
		want    int
		wantErr bool
	}{
		{name: "absent key reads empty", want: 0},
		{name: "stored collection", raw: `[{"id":"1"},{"id":"2"}]`, want: 2},
		{name: "corrupt json reads empty", raw: `[{"id":`, want: 0},
		{name: "null reads empty", raw: `null`, want: 0},
		{name: "backend failure", failGet: true, want: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, store := newFlakyAdapter(t)
			if tt.raw != "" {
				require.NoError(t, store.Put(ctx, KeyTasks, []byte(tt.raw)))
			}
			store.failGet = tt.failGet

			tasks, err := Load[domain.Task](ctx, adapter, KeyTasks)
			if tt.wantErr {
				assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
			} else {
				assert.NoError(t, err)
			}
			assert.NotNil(t, tasks)
			assert.Len(t, tasks, tt.want)
		})
	}
}

func TestAdapter_SetFailure(t *testing.T) {
	adapter, store := newFlakyAdapter(t)
	store.failPut = true

	err := adapter.Set(context.Background(), KeyUsers, []domain.User{{ID: "u1"}})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	assert.ErrorIs(t, err, errBackendDown)
}

func TestAdapter_Value(t *testing.T) {
	ctx := context.Background()
	adapter, store := newFlakyAdapter(t)

	var user domain.User
	found, err := adapter.Value(ctx, KeySession, &user)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, KeySession, []byte(`{"id":`)))
	found, err = adapter.Value(ctx, KeySession, &user)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrCorruptValue)

	require.NoError(t, adapter.Set(ctx, KeySession, domain.User{ID: "u1", Name: "Ana"}))
	found, err = adapter.Value(ctx, KeySession, &user)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ana", user.Name)

	require.NoError(t, adapter.Remove(ctx, KeySession))
	found, err = adapter.Value(ctx, KeySession, &user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAdapter_NextIDIsMonotonicAndPersisted(t *testing.T) {
	ctx := context.Background()
	store := newBoltStore(t)

	first := NewAdapter(store, nil)
	assert.Equal(t, "1", first.NextID(ctx, KeyTaskCounter))
	assert.Equal(t, "2", first.NextID(ctx, KeyTaskCounter))
	assert.Equal(t, "1", first.NextID(ctx, "other_counter"))

	restarted := NewAdapter(store, nil)
	assert.Equal(t, "3", restarted.NextID(ctx, KeyTaskCounter))
}

func TestAdapter_NextIDFallsBackToTimestamp(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	want := "1714564800000"

	tests := []struct {
		name    string
		setup   func(store *flakyStore)
		failGet bool
		failPut bool
	}{
		{name: "unreadable counter", failGet: true},
		{name: "unwritable counter", failPut: true},
		{
			name: "corrupt counter",
			setup: func(store *flakyStore) {
				require.NoError(t, store.Put(ctx, KeyTaskCounter, []byte("abc")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, store := newFlakyAdapter(t, WithClock(func() time.Time { return clock }))
			if tt.setup != nil {
				tt.setup(store)
			}
			store.failGet = tt.failGet
			store.failPut = tt.failPut

			assert.Equal(t, want, adapter.NextID(ctx, KeyTaskCounter))
		})
	}
}
