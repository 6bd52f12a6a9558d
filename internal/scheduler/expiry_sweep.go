package scheduler

import (
	"context"
	"time"

	leadsservice "leadexchange_backend/internal/leads/service"
	"leadexchange_backend/platform/logger"
)

const (
	defaultSweepInterval = 5 * time.Minute
	sweepBatchSize       = 200
)

// ExpirySweep periodically moves stale PROCESSING leads to EXPIRED. It is the
// safety net for auctions that never reached a terminal state.
type ExpirySweep struct {
	leads    *leadsservice.Service
	log      *logger.Logger
	maxAge   time.Duration
	interval time.Duration
}

func NewExpirySweep(leads *leadsservice.Service, log *logger.Logger, maxAge, interval time.Duration) *ExpirySweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ExpirySweep{
		leads:    leads,
		log:      log,
		maxAge:   maxAge,
		interval: interval,
	}
}

func (s *ExpirySweep) Run(ctx context.Context) {
	if s == nil || s.leads == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ExpirySweep) sweep(ctx context.Context) {
	expired, err := s.leads.ExpireStale(ctx, s.maxAge, sweepBatchSize)
	if err != nil {
		s.log.Warn("lead expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.log.Info("lead expiry sweep expired stale leads", "expired", expired)
	}
}
