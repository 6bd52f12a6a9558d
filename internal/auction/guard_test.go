package auction

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testGuard(t *testing.T) *RunGuard {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRunGuard(rdb, time.Minute)
}

func TestRunGuardAcquireRelease(t *testing.T) {
	guard := testGuard(t)
	ctx := context.Background()
	leadID := uuid.New()

	acquired, err := guard.Acquire(ctx, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("first acquire should succeed")
	}

	acquired, err = guard.Acquire(ctx, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Fatal("second acquire must fail while the marker is held")
	}

	// A different lead is unaffected.
	acquired, err = guard.Acquire(ctx, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("marker for one lead must not block another")
	}

	if err := guard.Release(ctx, leadID); err != nil {
		t.Fatalf("release: %v", err)
	}
	acquired, err = guard.Acquire(ctx, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("acquire after release should succeed")
	}
}

func TestRunGuardReleaseWithoutAcquire(t *testing.T) {
	guard := testGuard(t)
	if err := guard.Release(context.Background(), uuid.New()); err != nil {
		t.Fatalf("release of an unheld marker must be safe: %v", err)
	}
}
