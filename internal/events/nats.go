package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes domain events as JSON messages on NATS subjects, one
// subject per topic.
type NATSBus struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSBus wraps an established NATS connection.
func NewNATSBus(conn *nats.Conn, logger *slog.Logger) *NATSBus {
	return &NATSBus{conn: conn, logger: logger}
}

// Publish sends a single message. There is no broker-side acknowledgement
// wait: delivery is at-most-once by construction.
func (b *NATSBus) Publish(_ context.Context, topic string, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.conn.Publish(topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe delivers each message on the subject to the handler. Messages
// that fail to decode are logged and dropped.
func (b *NATSBus) Subscribe(topic string, h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			b.logger.Warn("drop undecodable event", "topic", topic, "error", err)
			return
		}
		h(context.Background(), e)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("unsubscribe", "topic", topic, "error", err)
		}
	}, nil
}
