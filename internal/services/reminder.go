package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
)

// NotificationWarning is the notification type used for overdue reminders.
const NotificationWarning = "warning"

// ConnectionHealth abstracts the storage monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// OverdueSource lists an owner's past-due tasks.
type OverdueSource interface {
	Overdue(ctx context.Context, owner domain.Owner) []domain.Task
}

// SessionSource exposes the active session user.
type SessionSource interface {
	Current() (domain.User, bool)
}

// Notifier appends a notification to the session user.
type Notifier interface {
	AddNotification(ctx context.Context, in domain.NotificationInput) (*domain.Notification, error)
}

// ReminderConfig controls how often overdue tasks are checked.
type ReminderConfig struct {
	Interval time.Duration
}

// OverdueReminder warns the session user once per overdue task.
type OverdueReminder struct {
	tasks    OverdueSource
	session  SessionSource
	notifier Notifier
	monitor  ConnectionHealth
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ReminderConfig
}

func NewOverdueReminder(
	tasks OverdueSource,
	session SessionSource,
	notifier Notifier,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ReminderConfig,
) *OverdueReminder {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OverdueReminder{
		tasks:    tasks,
		session:  session,
		notifier: notifier,
		monitor:  monitor,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := r.Check(ctx); err != nil {
			r.logger.Error("overdue check failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *OverdueReminder) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("overdue reminder started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running check or for ctx, whichever ends first.
func (r *OverdueReminder) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("overdue reminder stopped")
}

// Check runs one pass and reports how many reminders were added.
func (r *OverdueReminder) Check(ctx context.Context) (int, error) {
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping overdue check (storage offline)")
		return 0, nil
	}
	user, ok := r.session.Current()
	if !ok {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(user.Notifications))
	for _, n := range user.Notifications {
		seen[n.Message] = struct{}{}
	}

	added := 0
	for _, task := range r.tasks.Overdue(ctx, domain.OwnerOf(user)) {
		message := OverdueMessage(task)
		if _, dup := seen[message]; dup {
			continue
		}
		if _, err := r.notifier.AddNotification(ctx, domain.NotificationInput{
			Message: message,
			Type:    NotificationWarning,
		}); err != nil {
			return added, err
		}
		seen[message] = struct{}{}
		added++
	}
	if added > 0 {
		r.logger.Info("overdue reminders added", zap.String("user_id", user.ID), zap.Int("count", added))
	}
	return added, nil
}

func OverdueMessage(task domain.Task) string {
	return `Task "` + task.Title + `" is overdue`
}
