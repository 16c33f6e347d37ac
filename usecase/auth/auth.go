package auth

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

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("name is required")
	}
	if !domain.ValidEmail(in.Email) {
		return domain.Validation("invalid email %q", in.Email)
	}
	if in.Password == "" {
		return domain.Validation("password is required")
	}
	if len(in.Password) > MaxPasswordBytes {
		return domain.Validation("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// UseCase owns the single session of the process.
// The session is Unauthenticated until Login binds a user; Logout returns it there.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   Hasher
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	current *domain.User
}

func New(users repository.UserRepository, sessions repository.SessionRepository, hasher Hasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultBcryptCost)
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
}

// Restore loads the persisted session once at startup. Malformed data is discarded.
// It reports whether a session was restored and never fails.
func (uc *UseCase) Restore(ctx context.Context) bool {
	user, err := uc.sessions.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSessionNotFound):
		return false
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		uc.logger.Warn("discarding malformed session", zap.Error(err))
		if clearErr := uc.sessions.Clear(ctx); clearErr != nil {
			uc.logger.Error("failed to discard session", zap.Error(clearErr))
		}
		return false
	default:
		uc.logger.Error("session restore failed", zap.Error(err))
		return false
	}

	uc.mu.Lock()
	uc.current = user
	uc.mu.Unlock()
	uc.logger.Info("session restored", zap.String("user_id", user.ID))
	return true
}

// Register creates the account and signs it in.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	user := domain.User{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Email:         in.Email,
		Password:      hash,
		CreatedAt:     uc.now(),
		Notifications: []domain.Notification{},
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.FromContext(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))

	if err := uc.Login(ctx, user); err != nil {
		// undo the account so the email stays free
		if rollbackErr := uc.users.Delete(ctx, user.ID); rollbackErr != nil {
			logger.FromContext(ctx, uc.logger).Error("registration rollback failed",
				zap.String("user_id", user.ID), zap.Error(rollbackErr))
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// Authenticate checks credentials and signs the user in.
// Unknown emails and wrong passwords fail the same way.
func (uc *UseCase) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !uc.hasher.Verify(password, user.Password) {
		logger.FromContext(ctx, uc.logger).Info("login rejected", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	if err := uc.Login(ctx, *user); err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// Login binds the session to user, replacing any previous one.
// The state only changes once the snapshot is persisted.
func (uc *UseCase) Login(ctx context.Context, user domain.User) error {
	public := user.Public()
	if err := uc.sessions.Save(ctx, public); err != nil {
		return err
	}
	uc.mu.Lock()
	uc.current = &public
	uc.mu.Unlock()
	return nil
}

// Logout ends the session. The user stays signed in when the snapshot cannot be cleared.
func (uc *UseCase) Logout(ctx context.Context) error {
	if err := uc.sessions.Clear(ctx); err != nil {
		return err
	}
	uc.mu.Lock()
	uc.current = nil
	uc.mu.Unlock()
	return nil
}

// Sync replaces the session user when user is the one signed in.
func (uc *UseCase) Sync(ctx context.Context, user domain.User) error {
	uc.mu.RLock()
	matches := uc.current != nil && uc.current.ID == user.ID
	uc.mu.RUnlock()
	if !matches {
		return nil
	}
	return uc.Login(ctx, user)
}

// DeleteUser removes the account and ends the session if it was signed in. Tasks are kept.
func (uc *UseCase) DeleteUser(ctx context.Context, userID string) error {
	if err := uc.users.Delete(ctx, userID); err != nil {
		return err
	}
	uc.mu.RLock()
	signedIn := uc.current != nil && uc.current.ID == userID
	uc.mu.RUnlock()
	if signedIn {
		return uc.Logout(ctx)
	}
	return nil
}

// Current returns a copy of the session user.
func (uc *UseCase) Current() (domain.User, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.current == nil {
		return domain.User{}, false
	}
	return uc.current.Clone(), true
}

func (uc *UseCase) IsAuthenticated() bool {
	_, ok := uc.Current()
	return ok
}

func (uc *UseCase) State() domain.SessionState {
	user, ok := uc.Current()
	if !ok {
		return domain.NewSessionState(nil)
	}
	return domain.NewSessionState(&user)
}
