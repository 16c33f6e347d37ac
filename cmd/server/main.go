package main

import (
	"context"
	"fmt"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskmaster/api/handler"
	"github.com/fastygo/taskmaster/internal/config"
	"github.com/fastygo/taskmaster/internal/infrastructure/bolt"
	"github.com/fastygo/taskmaster/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskmaster/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskmaster/internal/infrastructure/redis"
	"github.com/fastygo/taskmaster/internal/middleware"
	"github.com/fastygo/taskmaster/internal/router"
	"github.com/fastygo/taskmaster/internal/services"
	"github.com/fastygo/taskmaster/internal/services/lifecycle"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
	"github.com/fastygo/taskmaster/pkg/logger"
	"github.com/fastygo/taskmaster/repository"
	"github.com/fastygo/taskmaster/repository/kv"
	pgRepo "github.com/fastygo/taskmaster/repository/postgres"
	redisRepo "github.com/fastygo/taskmaster/repository/redis"
	authUC "github.com/fastygo/taskmaster/usecase/auth"
	profileUC "github.com/fastygo/taskmaster/usecase/profile"
	taskUC "github.com/fastygo/taskmaster/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := openStorage(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("storage", func(ctx context.Context) error {
		return store.Close()
	})

	mon := monitor.New(cfg.Storage.Driver, store, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	adapter := kv.NewAdapter(store, zapLogger)
	userRepo := kv.NewUserRepository(adapter)
	taskRepo := kv.NewTaskRepository(adapter, zapLogger)
	sessionRepo := kv.NewSessionRepository(adapter)

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.NewPasswordHasher(cfg.Auth.BcryptCost), zapLogger)
	profileUseCase := profileUC.New(userRepo, authUseCase, zapLogger)
	taskUseCase := taskUC.New(taskRepo, zapLogger)

	if authUseCase.Restore(appCtx) {
		zapLogger.Info("resuming previous session")
	}

	if cfg.Reminder.Enabled {
		reminder := services.NewOverdueReminder(
			taskUseCase,
			authUseCase,
			profileUseCase,
			mon,
			zapLogger,
			services.ReminderConfig{Interval: cfg.Reminder.Interval},
		)
		reminder.Start()
		manager.Register("overdue_reminder", func(ctx context.Context) error {
			reminder.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	tokens := middleware.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, tokens, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, authUseCase.IsAuthenticated, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.SessionAuth(tokens, authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStorage connects the key-value backend selected by STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (repository.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		store, err := bolt.Open(cfg.Storage.BoltPath, cfg.Storage.BoltBucket)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redisRepo.NewStore(client, cfg.Storage.RedisPrefix), nil
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		return pgRepo.NewStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
