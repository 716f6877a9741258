package events

import (
	"context"
	"log/slog"
)

// Emitter publishes domain events on a best-effort basis. A failed publish is
// logged and forgotten: the caller's already-committed mutation stands, and
// the event is simply lost (at-most-once delivery). Downstream consumers may
// therefore observe a window where the balance changed but no event arrived.
type Emitter struct {
	bus    Bus
	logger *slog.Logger
}

// NewEmitter builds an emitter over the given bus.
func NewEmitter(bus Bus, logger *slog.Logger) *Emitter {
	return &Emitter{bus: bus, logger: logger}
}

// Emit attempts a single publish of the event to its topic. It never returns
// an error and never retries.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.bus == nil {
		return
	}
	topic := TopicFor(event.Type)
	if err := e.bus.Publish(ctx, topic, event); err != nil {
		e.logger.Warn("event publish failed",
			"topic", topic,
			"type", event.Type,
			"compte_id", event.AccountID,
			"error", err)
	}
}
