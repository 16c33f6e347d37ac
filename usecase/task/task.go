package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/logger"
	"github.com/fastygo/taskmaster/repository"
)

// UseCase exposes owner-scoped task operations.
// Queries never fail: storage errors are logged and read as empty results.
type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	now    func() time.Time
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
}

func (uc *UseCase) Create(ctx context.Context, owner domain.Owner, input domain.TaskInput) (*domain.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	created, err := uc.tasks.Create(ctx, input.Task(owner))
	if err != nil {
		logger.FromContext(ctx, uc.logger).Error("create task failed", zap.Error(err))
		return nil, err
	}
	return created, nil
}

// Get returns the task only when owner owns it; foreign tasks read as not found.
func (uc *UseCase) Get(ctx context.Context, owner domain.Owner, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owner.Owns(*task) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) Update(ctx context.Context, owner domain.Owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := uc.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	return uc.tasks.Update(ctx, id, patch)
}

func (uc *UseCase) Delete(ctx context.Context, owner domain.Owner, id string) error {
	if _, err := uc.Get(ctx, owner, id); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, id)
}

// BulkUpdate patches the owner's tasks among ids and reports how many changed.
func (uc *UseCase) BulkUpdate(ctx context.Context, owner domain.Owner, ids []string, patch domain.TaskPatch) (int, error) {
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	owned, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	mine := make(map[string]struct{}, len(owned))
	for _, t := range owned {
		mine[t.ID] = struct{}{}
	}

	scoped := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := mine[id]; ok {
			scoped = append(scoped, id)
		}
	}
	if len(scoped) == 0 {
		return 0, domain.ErrNoTasksMatched
	}
	return uc.tasks.BulkUpdate(ctx, scoped, patch)
}

// List returns every task of owner in insertion order.
func (uc *UseCase) List(ctx context.Context, owner domain.Owner) []domain.Task {
	tasks, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		logger.FromContext(ctx, uc.logger).Warn("listing tasks degraded to empty",
			zap.String("user_id", owner.UserID), zap.Error(err))
		return []domain.Task{}
	}
	return tasks
}

// Query applies every non-zero filter of q to the owner's tasks.
func (uc *UseCase) Query(ctx context.Context, owner domain.Owner, q domain.TaskQuery) []domain.Task {
	now := uc.now()
	out := make([]domain.Task, 0)
	for _, t := range uc.List(ctx, owner) {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		if q.Overdue && (!t.IsOverdue(now) || t.Status == domain.StatusCancelled) {
			continue
		}
		if !t.Matches(q.Term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (uc *UseCase) Search(ctx context.Context, owner domain.Owner, term string) []domain.Task {
	return uc.Query(ctx, owner, domain.TaskQuery{Term: term})
}

func (uc *UseCase) ByStatus(ctx context.Context, owner domain.Owner, status domain.TaskStatus) []domain.Task {
	return uc.Query(ctx, owner, domain.TaskQuery{Status: status})
}

func (uc *UseCase) ByPriority(ctx context.Context, owner domain.Owner, priority domain.TaskPriority) []domain.Task {
	return uc.Query(ctx, owner, domain.TaskQuery{Priority: priority})
}

// Overdue lists past-due tasks that are neither done nor cancelled.
func (uc *UseCase) Overdue(ctx context.Context, owner domain.Owner) []domain.Task {
	return uc.Query(ctx, owner, domain.TaskQuery{Overdue: true})
}

func (uc *UseCase) Statistics(ctx context.Context, owner domain.Owner) domain.TaskStatistics {
	return domain.ComputeStatistics(uc.List(ctx, owner), uc.now())
}

func (uc *UseCase) Export(ctx context.Context, owner domain.Owner) domain.ExportBundle {
	tasks := uc.List(ctx, owner)
	return domain.ExportBundle{
		Tasks:      tasks,
		ExportedAt: uc.now(),
		UserID:     owner.UserID,
		UserEmail:  owner.Email,
		TotalTasks: len(tasks),
	}
}

// Import stores records as new tasks of owner. Records are not de-duplicated.
func (uc *UseCase) Import(ctx context.Context, owner domain.Owner, records []domain.Task) (int, error) {
	for i, r := range records {
		input := domain.TaskInput{
			Title:          r.Title,
			Status:         r.Status,
			Priority:       r.Priority,
			EstimatedHours: r.EstimatedHours,
			ActualHours:    r.ActualHours,
		}
		if err := input.Validate(); err != nil {
			return 0, domain.Validation("record %d: %s", i, err.Error())
		}
	}
	count, err := uc.tasks.Import(ctx, owner, records)
	if err != nil {
		logger.FromContext(ctx, uc.logger).Error("import tasks failed", zap.Error(err))
		return 0, err
	}
	return count, nil
}
