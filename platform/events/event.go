// Package events carries in-process notifications between bounded contexts:
// lead intake tells the metrics collectors about submissions, the auction
// coordinator announces outcomes, and neither side imports the other. The bus
// is process-local; anything that must survive a restart goes through the
// task queue instead.
package events

import (
	"context"
	"time"
)

// Event is anything the bus can carry. EventName doubles as the subscription
// key, so two event types must never share a name.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp half of the Event contract; concrete
// events embed it and add their own EventName.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events. A handler error never reaches the publisher on the
// async path; it is logged by the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to every handler subscribed under the event's name.
type Bus interface {
	// Publish is fire and forget: handlers run on their own goroutines with a
	// context detached from the publisher's cancellation, so an auction run
	// finishing does not cut off its own completion event.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers under the caller's context, waits for all
	// of them, and returns the first error. Used where the caller needs the
	// side effects to have happened before it proceeds.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name. Registration happens
	// at wiring time; the bus is not built for churning subscriptions.
	Subscribe(eventName string, handler Handler)
}
