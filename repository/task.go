package repository

import (
	"context"

	"github.com/fastygo/taskmaster/domain"
)

// TaskRepository stores the task collection. Lookups by id are not owner-scoped here.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, patch domain.TaskPatch) (int, error)
	Import(ctx context.Context, owner domain.Owner, records []domain.Task) (int, error)
}
