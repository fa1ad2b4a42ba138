package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/asset-import/internal/bootstrap"
	"github.com/mohammadpnp/asset-import/internal/config"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/cache"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLog.Sync()

	ctx := context.Background()

	gormDB, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		appLog.Fatal("failed to connect database", "error", err)
	}
	if err := db.Migrate(ctx, gormDB, appLog); err != nil {
		appLog.Fatal("failed to migrate database", "error", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("failed to create pgx pool", "error", err)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			appLog.Warn("redis unavailable, suggestion cache disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	app := bootstrap.NewApp(bootstrap.Deps{
		Config: cfg,
		DB:     gormDB,
		Pool:   pool,
		Redis:  redisClient,
		Log:    appLog,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	app.Runner.Start(workerCtx)

	go func() {
		appLog.Info("http server listening", "port", cfg.Port)
		if err := app.Server.Start(bootstrap.Addr(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}
