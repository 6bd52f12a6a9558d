// The worker process consumes auction tasks, runs the ping/post coordinator,
// and sweeps stale leads. It shares the composition style of cmd/api but
// serves no HTTP traffic.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadexchange_backend/internal/auction"
	"leadexchange_backend/internal/coverage"
	"leadexchange_backend/internal/events"
	"leadexchange_backend/internal/leads"
	"leadexchange_backend/internal/metrics"
	"leadexchange_backend/internal/scheduler"
	"leadexchange_backend/platform/config"
	"leadexchange_backend/platform/db"
	"leadexchange_backend/platform/logger"
	"leadexchange_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the worker")
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		panic("invalid REDIS_URL: " + err.Error())
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	eventBus := events.NewInMemoryBus(log)
	_ = metrics.NewModule(eventBus)
	val := validator.New()

	enqueuer, err := scheduler.NewClient(cfg)
	if err != nil {
		panic("failed to initialize queue client: " + err.Error())
	}
	defer enqueuer.Close()

	leadsModule := leads.NewModule(pool, eventBus, log, val)
	leadsModule.Service().SetAuctionEnqueuer(enqueuer)
	coverageModule := coverage.NewModule(pool, log, val)

	auctionModule := auction.NewModule(
		pool, rdb,
		leadsModule.Service(), coverageModule.Service(),
		enqueuer, eventBus, cfg, log,
	)

	worker, err := scheduler.NewWorker(cfg, auctionModule.Coordinator(), log)
	if err != nil {
		panic("failed to initialize worker: " + err.Error())
	}

	sweep := scheduler.NewExpirySweep(leadsModule.Service(), log, cfg.LeadExpiryAge, 0)
	go sweep.Run(ctx)

	worker.Run(ctx)
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
