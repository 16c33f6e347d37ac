package kv

import (
	"context"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/repository"
)

type sessionRepository struct {
	store *Adapter
}

// NewSessionRepository stores the current session under KeySession.
func NewSessionRepository(store *Adapter) repository.SessionRepository {
	return &sessionRepository{store: store}
}

// Load returns ErrCorruptValue for a snapshot that does not decode or carries no id.
func (r *sessionRepository) Load(ctx context.Context) (*domain.User, error) {
	var user domain.User
	found, err := r.store.Value(ctx, KeySession, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrSessionNotFound
	}
	if user.ID == "" {
		return nil, ErrCorruptValue
	}
	return &user, nil
}

func (r *sessionRepository) Save(ctx context.Context, user domain.User) error {
	return r.store.Set(ctx, KeySession, user.Public())
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, KeySession)
}
