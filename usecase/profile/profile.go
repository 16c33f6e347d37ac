package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/logger"
	"github.com/fastygo/taskmaster/repository"
)

// Session is the part of the session manager profile changes depend on.
type Session interface {
	Current() (domain.User, bool)
	Sync(ctx context.Context, user domain.User) error
}

// UseCase manages profiles and the session user's notifications.
// mu serialises the read-modify-write of a user record across the two stores.
type UseCase struct {
	users   repository.UserRepository
	session Session
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

func New(users repository.UserRepository, session Session, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:   users,
		session: session,
		logger:  logger,
		now:     time.Now,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.GetUser(ctx, userID)
}

func (uc *UseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ListUsers returns every account without password hashes. Storage errors read as empty.
func (uc *UseCase) ListUsers(ctx context.Context) []domain.User {
	users, err := uc.users.List(ctx)
	if err != nil {
		logger.FromContext(ctx, uc.logger).Warn("listing users degraded to empty", zap.Error(err))
		return []domain.User{}
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// UpdateProfile merges patch into the stored user and into the session when it is the same user.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Clone()
	patch.Apply(user)
	if err := uc.users.Update(ctx, *user); err != nil {
		return nil, err
	}
	if err := uc.session.Sync(ctx, *user); err != nil {
		uc.rollback(ctx, previous)
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// Notifications returns the session user's notifications, newest last.
func (uc *UseCase) Notifications(ctx context.Context) ([]domain.Notification, error) {
	user, ok := uc.session.Current()
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if user.Notifications == nil {
		return []domain.Notification{}, nil
	}
	return user.Notifications, nil
}

func (uc *UseCase) UnreadCount(ctx context.Context) int {
	user, ok := uc.session.Current()
	if !ok {
		return 0
	}
	return user.UnreadCount()
}

func (uc *UseCase) AddNotification(ctx context.Context, in domain.NotificationInput) (*domain.Notification, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	kind := strings.TrimSpace(in.Type)
	if kind == "" {
		kind = domain.NotificationInfo
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   in.Message,
		Type:      kind,
		CreatedAt: uc.now(),
	}
	err := uc.mutateNotifications(ctx, func(list []domain.Notification) ([]domain.Notification, error) {
		return append(list, n), nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (uc *UseCase) MarkNotificationRead(ctx context.Context, id string) error {
	return uc.mutateNotifications(ctx, func(list []domain.Notification) ([]domain.Notification, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
				return list, nil
			}
		}
		return nil, domain.ErrNotificationNotFound
	})
}

func (uc *UseCase) MarkAllNotificationsRead(ctx context.Context) error {
	return uc.mutateNotifications(ctx, func(list []domain.Notification) ([]domain.Notification, error) {
		for i := range list {
			list[i].Read = true
		}
		return list, nil
	})
}

func (uc *UseCase) DeleteNotification(ctx context.Context, id string) error {
	return uc.mutateNotifications(ctx, func(list []domain.Notification) ([]domain.Notification, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, domain.ErrNotificationNotFound
	})
}

// mutateNotifications edits the session user's list, mirrors it into the users collection
// and refreshes the session.
func (uc *UseCase) mutateNotifications(ctx context.Context, edit func([]domain.Notification) ([]domain.Notification, error)) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	current, ok := uc.session.Current()
	if !ok {
		return domain.ErrUnauthorized
	}
	list, err := edit(current.Notifications)
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	current.Notifications = list

	stored, err := uc.users.GetByID(ctx, current.ID)
	switch {
	case err == nil:
		previous := stored.Clone()
		stored.Notifications = list
		if err := uc.users.Update(ctx, *stored); err != nil {
			return err
		}
		if err := uc.session.Sync(ctx, current); err != nil {
			uc.rollback(ctx, previous)
			return err
		}
		return nil
	case errors.Is(err, domain.ErrUserNotFound):
		logger.FromContext(ctx, uc.logger).Warn("session user missing from users collection",
			zap.String("user_id", current.ID))
	default:
		return err
	}
	return uc.session.Sync(ctx, current)
}

// rollback restores a user record whose session sync failed.
func (uc *UseCase) rollback(ctx context.Context, previous domain.User) {
	if err := uc.users.Update(ctx, previous); err != nil {
		logger.FromContext(ctx, uc.logger).Error("user rollback failed",
			zap.String("user_id", previous.ID), zap.Error(err))
	}
}
