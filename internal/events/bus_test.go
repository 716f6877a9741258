package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/willbank/willbank/internal/logging"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	got := make(chan Event, 1)
	unsubscribe, err := bus.Subscribe(TopicBalanceUpdated, func(_ context.Context, e Event) {
		got <- e
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	other := make(chan Event, 1)
	detach, err := bus.Subscribe(TopicAccountCreated, func(_ context.Context, e Event) {
		other <- e
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer detach()

	e := Event{Type: TypeBalanceUpdated, AccountID: "acc-1", NewBalance: "42"}
	if err := bus.Publish(context.Background(), TopicBalanceUpdated, e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	delivered := waitEvent(t, got)
	if delivered.AccountID != "acc-1" || delivered.NewBalance != "42" {
		t.Fatalf("unexpected event: %+v", delivered)
	}

	select {
	case e := <-other:
		t.Fatalf("event leaked to unrelated topic: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()

	got := make(chan Event, 1)
	unsubscribe, err := bus.Subscribe(TopicStatusChanged, func(_ context.Context, e Event) {
		got <- e
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	unsubscribe()

	if err := bus.Publish(context.Background(), TopicStatusChanged, Event{Type: TypeStatusChanged}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case e := <-got:
		t.Fatalf("delivered after unsubscribe: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTopicFor(t *testing.T) {
	cases := map[string]string{
		TypeAccountCreated: TopicAccountCreated,
		TypeBalanceUpdated: TopicBalanceUpdated,
		TypeStatusChanged:  TopicStatusChanged,
	}
	for typ, topic := range cases {
		if got := TopicFor(typ); got != topic {
			t.Fatalf("TopicFor(%s) = %s, want %s", typ, got, topic)
		}
	}
}

type failingBus struct {
	calls int
}

func (b *failingBus) Publish(context.Context, string, Event) error {
	b.calls++
	return errors.New("broker unreachable")
}

func (b *failingBus) Subscribe(string, Handler) (func(), error) {
	return func() {}, nil
}

func TestEmitterSwallowsPublishFailures(t *testing.T) {
	bus := &failingBus{}
	emitter := NewEmitter(bus, logging.Discard())

	// A single attempt, no retry, no panic.
	emitter.Emit(context.Background(), Event{Type: TypeBalanceUpdated, AccountID: "acc-1"})
	if bus.calls != 1 {
		t.Fatalf("expected exactly one publish attempt, got %d", bus.calls)
	}
}
