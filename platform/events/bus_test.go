package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	name string
}

func (e testEvent) EventName() string     { return e.name }
func (e testEvent) OccurredAt() time.Time { return time.Now() }

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var calls []string
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls = append(calls, "first")
		return nil
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls = append(calls, "second")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected both handlers in order, got %v", calls)
	}
}

func TestPublishIgnoresUnrelatedEvents(t *testing.T) {
	bus := NewInMemoryBus(nil)

	called := false
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		called = true
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "other.happened"})

	if called {
		t.Fatal("handler fired for an event it never subscribed to")
	}
}

func TestPublishSwallowsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)

	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return errors.New("boom")
	}))

	called := false
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		called = true
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})

	if !called {
		t.Fatal("second handler skipped after first handler error")
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(nil)

	want := errors.New("boom")
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return want
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		t.Fatal("handler after error should not run")
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{name: "thing.happened"})
	if !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}
}
