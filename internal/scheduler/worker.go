package scheduler

import (
	"context"
	"fmt"

	"leadexchange_backend/internal/auction"
	"leadexchange_backend/platform/config"
	"leadexchange_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes auction tasks from the queue and hands them to the
// coordinator.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	coordinator *auction.Coordinator
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, coordinator *auction.Coordinator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		coordinator: coordinator,
		log:         log,
	}

	mux.HandleFunc(TaskAuctionRun, w.handleAuctionRun)

	return w, nil
}

func (w *Worker) handleAuctionRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAuctionRunPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	outcome, err := w.coordinator.Run(ctx, leadID)
	if err != nil {
		w.log.Error("auction run failed", "lead_id", leadID, "error", err)
		return err
	}

	if outcome.Result == auction.ResultSkipped {
		w.log.Info("auction run skipped", "lead_id", leadID, "reason", outcome.Reason)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
