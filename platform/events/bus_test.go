package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leadexchange_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var wg sync.WaitGroup
	var handled atomic.Int32
	wg.Add(2)
	handler := HandlerFunc(func(ctx context.Context, event Event) error {
		defer wg.Done()
		handled.Add(1)
		return nil
	})
	bus.Subscribe("lead.created", handler)
	bus.Subscribe("lead.created", handler)
	bus.Subscribe("lead.sold", HandlerFunc(func(ctx context.Context, event Event) error {
		t.Error("handler for another event name invoked")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "lead.created"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers not invoked")
	}
	if handled.Load() != 2 {
		t.Fatalf("handled = %d", handled.Load())
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	wantErr := errors.New("handler failed")
	bus.Subscribe("lead.created", HandlerFunc(func(ctx context.Context, event Event) error {
		return nil
	}))
	bus.Subscribe("lead.created", HandlerFunc(func(ctx context.Context, event Event) error {
		return wantErr
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "lead.created"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestPublishWithoutSubscribersIsSafe(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "nobody.listens"})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "nobody.listens"}); err != nil {
		t.Fatalf("err = %v", err)
	}
}
