package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/api"
	"github.com/Harshitk-cp/crmgate/internal/buildconfig"
	"github.com/Harshitk-cp/crmgate/internal/config"
	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/lock"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/Harshitk-cp/crmgate/internal/store/mongodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	var locker lock.Locker
	if cfg.RedisURL != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		locker = lock.NewRedisLocker(rdb)
		logger.Info("refresh lock shared through redis")
	}

	app := api.NewApp(ctx, cfg, creds, locker, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.Store),
			zap.String("version", buildconfig.Version()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.Development() {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

// openStore connects the configured credential backend and returns a
// function that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.CredentialStore, func()) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(pool); err != nil {
				logger.Fatal("failed to migrate database", zap.Error(err))
			}
		}
		logger.Info("connected to database")
		return store.NewCredentialStore(pool), pool.Close

	case config.StoreMongo:
		s, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Fatal("failed to connect to mongodb", zap.Error(err))
		}
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return s, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(closeCtx)
		}

	default:
		return store.NewMemoryCredentialStore(), func() {}
	}
}
