package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunGuard prevents two workers from auctioning the same lead at once. It is
// a best-effort in-flight marker in Redis; the status machine's conditional
// updates remain the hard guarantee.
type RunGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRunGuard(rdb *redis.Client, ttl time.Duration) *RunGuard {
	return &RunGuard{rdb: rdb, ttl: ttl}
}

func guardKey(leadID uuid.UUID) string {
	return fmt.Sprintf("auction:inflight:%s", leadID)
}

// Acquire returns true when this process now owns the in-flight marker.
func (g *RunGuard) Acquire(ctx context.Context, leadID uuid.UUID) (bool, error) {
	return g.rdb.SetNX(ctx, guardKey(leadID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release drops the marker. Safe to call even when Acquire failed.
func (g *RunGuard) Release(ctx context.Context, leadID uuid.UUID) error {
	return g.rdb.Del(ctx, guardKey(leadID)).Err()
}
