package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"cryptovest/internal/config"
	"cryptovest/internal/database"
	"cryptovest/internal/investment"
	"cryptovest/internal/lock"
	"cryptovest/internal/logger"
	"cryptovest/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded")

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var locker lock.Locker = lock.NopLocker{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		locker = lock.NewRedisLocker(client)
		log.Info("Using Redis lock for maturity sweeps", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("Redis not configured, maturity sweeps are not coordinated across workers")
	}

	investments := investment.NewService(db, log)
	job := scheduler.NewMaturityJob(investments, locker, cfg.Maturity.LockKey, cfg.Maturity.LockTTL, log)

	runner := scheduler.NewRunner(ctx, log)
	if _, err := runner.Add(cfg.Maturity.Schedule, job.Tick); err != nil {
		log.Fatal("Invalid maturity schedule", zap.String("schedule", cfg.Maturity.Schedule), zap.Error(err))
	}

	// Catch up on anything that came due while no worker was running.
	job.Tick(ctx)

	runner.Start()
	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")
	runner.Stop()

	log.Info("Worker has been shut down.")
}
