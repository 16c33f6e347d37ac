package repository

import (
	"context"

	"github.com/fastygo/taskmaster/domain"
)

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create fails with domain.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user domain.User) error
	// Update replaces the record with the same id, keeping emails unique.
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
}
