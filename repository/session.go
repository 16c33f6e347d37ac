package repository

import (
	"context"

	"github.com/fastygo/taskmaster/domain"
)

// SessionRepository persists the snapshot of the single signed-in user.
type SessionRepository interface {
	// Load returns domain.ErrSessionNotFound when nothing is stored.
	Load(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
}
