package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/repository"
)

// Persisted keys.
const (
	KeyTasks       = "tasks"
	KeyTaskCounter = "tasks_id_counter"
	KeyUsers       = "users"
	KeySession     = "current_session"
)

// ErrCorruptValue marks a stored value that no longer decodes.
var ErrCorruptValue = domain.NewError(domain.ErrCodeInvalid, "stored value is corrupt")

// Adapter layers JSON collections, single values and id counters over a KeyValueStore.
type Adapter struct {
	store  repository.KeyValueStore
	logger *zap.Logger
	now    func() time.Time

	counterMu sync.Mutex
}

// Option customises an Adapter.
type Option func(*Adapter)

// WithClock replaces time.Now, used for fallback ids.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAdapter(store repository.KeyValueStore, logger *zap.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load reads the collection stored under key.
// A missing or corrupt value reads as an empty collection; only backend failures are returned.
func Load[T any](ctx context.Context, a *Adapter, key string) ([]T, error) {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return []T{}, nil
		}
		a.logger.Error("storage read failed", zap.String("key", key), zap.Error(err))
		return []T{}, domain.WrapError(domain.ErrCodeStorage, "read "+key, err)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		a.logger.Warn("corrupt collection treated as empty", zap.String("key", key), zap.Error(err))
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Set encodes records and writes them under key.
func (a *Adapter) Set(ctx context.Context, key string, records any) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "encode "+key, err)
	}
	if err := a.store.Put(ctx, key, payload); err != nil {
		a.logger.Error("storage write failed", zap.String("key", key), zap.Error(err))
		return domain.WrapError(domain.ErrCodeStorage, "write "+key, err)
	}
	return nil
}

// Value decodes the single record under key into dest. It reports false when the key is absent.
func (a *Adapter) Value(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return false, nil
		}
		a.logger.Error("storage read failed", zap.String("key", key), zap.Error(err))
		return false, domain.WrapError(domain.ErrCodeStorage, "read "+key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		a.logger.Warn("corrupt value", zap.String("key", key), zap.Error(err))
		return false, ErrCorruptValue
	}
	return true, nil
}

// Remove deletes key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrKeyNotFound) {
		a.logger.Error("storage delete failed", zap.String("key", key), zap.Error(err))
		return domain.WrapError(domain.ErrCodeStorage, "delete "+key, err)
	}
	return nil
}

// NextID increments the persisted counter under counterKey and returns the new value.
// When the counter cannot be read or written the id falls back to the current Unix milliseconds.
func (a *Adapter) NextID(ctx context.Context, counterKey string) string {
	a.counterMu.Lock()
	defer a.counterMu.Unlock()

	var last int64
	raw, err := a.store.Get(ctx, counterKey)
	switch {
	case errors.Is(err, repository.ErrKeyNotFound):
	case err != nil:
		a.logger.Warn("id counter unreadable, using timestamp id", zap.String("key", counterKey), zap.Error(err))
		return a.fallbackID()
	default:
		parsed, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if perr != nil || parsed < 0 {
			a.logger.Warn("id counter corrupt, using timestamp id", zap.String("key", counterKey), zap.Error(perr))
			return a.fallbackID()
		}
		last = parsed
	}

	next := strconv.FormatInt(last+1, 10)
	if err := a.store.Put(ctx, counterKey, []byte(next)); err != nil {
		a.logger.Warn("id counter not persisted, using timestamp id", zap.String("key", counterKey), zap.Error(err))
		return a.fallbackID()
	}
	return next
}

func (a *Adapter) fallbackID() string {
	return strconv.FormatInt(a.now().UnixMilli(), 10)
}
