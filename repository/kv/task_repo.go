package kv

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/repository"
)

const maxIDAttempts = 3

// taskRepository caches the task collection with an id index.
// Every write holds mu for the whole read-modify-write and persists the full collection.
type taskRepository struct {
	store  *Adapter
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	loaded bool
	items  []domain.Task
	index  map[string]int
}

// NewTaskRepository returns a key-value backed TaskRepository.
func NewTaskRepository(store *Adapter, logger *zap.Logger) repository.TaskRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskRepository{
		store:  store,
		logger: logger,
		now:    store.now,
	}
}

func (r *taskRepository) Create(ctx context.Context, task domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}

	now := r.now()
	task.ID = r.nextID(ctx)
	task.CreatedAt = now
	task.UpdatedAt = now
	task.CompletedAt = nil
	task.ApplyDefaults()
	if task.Status == domain.StatusDone {
		completed := now
		task.CompletedAt = &completed
	}

	r.items = append(r.items, task)
	r.index[task.ID] = len(r.items) - 1
	if err := r.persist(ctx); err != nil {
		return nil, err
	}

	created := task.Clone()
	return &created, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	pos, ok := r.index[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task := r.items[pos].Clone()
	return &task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return []domain.Task{}, err
	}
	tasks := make([]domain.Task, 0)
	for _, t := range r.items {
		if owner.Owns(t) {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	pos, ok := r.index[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	task := r.items[pos].Clone()
	patch.Apply(&task, r.now())
	r.items[pos] = task
	if err := r.persist(ctx); err != nil {
		return nil, err
	}

	updated := task.Clone()
	return &updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return err
	}
	pos, ok := r.index[id]
	if !ok {
		return domain.ErrTaskNotFound
	}

	r.items = append(r.items[:pos], r.items[pos+1:]...)
	r.reindex()
	return r.persist(ctx)
}

func (r *taskRepository) BulkUpdate(ctx context.Context, ids []string, patch domain.TaskPatch) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return 0, err
	}

	now := r.now()
	updated := 0
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		pos, ok := r.index[id]
		if !ok {
			continue
		}
		task := r.items[pos].Clone()
		patch.Apply(&task, now)
		r.items[pos] = task
		updated++
	}
	if updated == 0 {
		return 0, domain.ErrNoTasksMatched
	}
	if err := r.persist(ctx); err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *taskRepository) Import(ctx context.Context, owner domain.Owner, records []domain.Task) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	now := r.now()
	for _, record := range records {
		task := record.Clone()
		task.ID = r.nextID(ctx)
		task.UserID = owner.UserID
		task.UserEmail = owner.Email
		task.CreatedAt = now
		task.UpdatedAt = now
		task.ApplyDefaults()
		if task.Status == domain.StatusDone && task.CompletedAt == nil {
			completed := now
			task.CompletedAt = &completed
		}

		r.items = append(r.items, task)
		r.index[task.ID] = len(r.items) - 1
	}
	if err := r.persist(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}

// load fills the cache on first use. Callers hold mu.
func (r *taskRepository) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	items, err := Load[domain.Task](ctx, r.store, KeyTasks)
	if err != nil {
		return err
	}
	r.items = items
	r.reindex()
	r.loaded = true
	return nil
}

// persist writes the collection. A failed write drops the cache so the next call reloads storage.
func (r *taskRepository) persist(ctx context.Context) error {
	if err := r.store.Set(ctx, KeyTasks, r.items); err != nil {
		r.loaded = false
		r.items = nil
		r.index = nil
		return err
	}
	return nil
}

func (r *taskRepository) reindex() {
	r.index = make(map[string]int, len(r.items))
	for i, t := range r.items {
		if _, exists := r.index[t.ID]; !exists {
			r.index[t.ID] = i
		}
	}
}

// nextID draws from the persisted counter and skips ids already in the collection.
func (r *taskRepository) nextID(ctx context.Context) string {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.store.NextID(ctx, KeyTaskCounter)
		if _, taken := r.index[id]; !taken {
			return id
		}
		r.logger.Warn("task id already in use, drawing another", zap.String("id", id))
	}
	return uuid.NewString()
}
