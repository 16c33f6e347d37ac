package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errNoBackend = errors.New("no storage backend configured")

// Pinger is a backend that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// keyCounter is implemented by backends that can cheaply count their keys.
type keyCounter interface {
	Keys(ctx context.Context) (int, error)
}

type Monitor struct {
	driver  string
	backend Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(driver string, backend Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		driver:   driver,
		backend:  backend,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Driver: driver},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh pings the backend once and records the result.
// The ping and the key count share one timeout.
func (m *Monitor) Refresh() Status {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	status := Status{Driver: m.driver, LastCheck: time.Now()}
	if err := m.ping(ctx); err != nil {
		status.Error = err.Error()
	} else {
		status.Storage = true
	}
	if counter, ok := m.backend.(keyCounter); ok && status.Storage {
		keys, err := counter.Keys(ctx)
		if err != nil {
			m.logger.Warn("key count failed", zap.String("driver", m.driver), zap.Error(err))
		}
		status.Keys = keys
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Storage != status.Storage && !previous.LastCheck.IsZero() {
		m.logger.Warn("storage availability changed",
			zap.String("driver", m.driver),
			zap.Bool("online", status.Storage),
			zap.String("error", status.Error))
	}
	return status
}

func (m *Monitor) ping(ctx context.Context) error {
	if m.backend == nil {
		return errNoBackend
	}
	return m.backend.Ping(ctx)
}
