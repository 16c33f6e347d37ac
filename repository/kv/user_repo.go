package kv

import (
	"context"
	"sync"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/repository"
)

type userRepository struct {
	store *Adapter
	mu    sync.Mutex
}

// NewUserRepository returns a key-value backed UserRepository.
// The collection is small, so it is read from storage on every call.
func NewUserRepository(store *Adapter) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Load[domain.User](ctx, r.store, KeyUsers)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return u.ID == id })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return u.Email == email })
}

func (r *userRepository) Create(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := Load[domain.User](ctx, r.store, KeyUsers)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if user.Notifications == nil {
		user.Notifications = []domain.Notification{}
	}
	return r.store.Set(ctx, KeyUsers, append(users, user))
}

func (r *userRepository) Update(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := Load[domain.User](ctx, r.store, KeyUsers)
	if err != nil {
		return err
	}
	pos := -1
	for i, existing := range users {
		if existing.ID == user.ID {
			if pos == -1 {
				pos = i
			}
			continue
		}
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if pos == -1 {
		return domain.ErrUserNotFound
	}
	users[pos] = user
	return r.store.Set(ctx, KeyUsers, users)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := Load[domain.User](ctx, r.store, KeyUsers)
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return domain.ErrUserNotFound
	}
	return r.store.Set(ctx, KeyUsers, kept)
}

func (r *userRepository) find(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := Load[domain.User](ctx, r.store, KeyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			found := u.Clone()
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}
