package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/willbank/willbank/internal/events"
)

// Message describes a notification payload handed to a delivery channel.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. Actual channel
// content (email, SMS) lives outside this service.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// Attach subscribes the notifier to the account event topics and returns a
// function detaching all subscriptions. Events arrive at most once; a missed
// event simply produces no notification.
func Attach(bus events.Bus, notifier Notifier, logger *slog.Logger) (func(), error) {
	topics := []string{
		events.TopicAccountCreated,
		events.TopicBalanceUpdated,
		events.TopicStatusChanged,
	}

	unsubs := make([]func(), 0, len(topics))
	detach := func() {
		for _, u := range unsubs {
			u()
		}
	}

	for _, topic := range topics {
		unsub, err := bus.Subscribe(topic, func(ctx context.Context, e events.Event) {
			msg := render(e)
			if err := notifier.Send(ctx, msg); err != nil {
				logger.Warn("notification delivery failed", "kind", msg.Kind, "error", err)
			}
		})
		if err != nil {
			detach()
			return nil, err
		}
		unsubs = append(unsubs, unsub)
	}

	return detach, nil
}

func render(e events.Event) Message {
	switch e.Type {
	case events.TypeAccountCreated:
		return Message{
			Kind:        e.Type,
			Destination: e.OwnerID,
			Body:        fmt.Sprintf("Votre compte %s a été créé", e.AccountNumber),
		}
	case events.TypeBalanceUpdated:
		return Message{
			Kind:        e.Type,
			Destination: e.OwnerID,
			Body: fmt.Sprintf("Opération %s de %s sur le compte %s, nouveau solde %s",
				e.Operation, e.Amount, e.AccountNumber, e.NewBalance),
		}
	case events.TypeStatusChanged:
		return Message{
			Kind:        e.Type,
			Destination: e.OwnerID,
			Body: fmt.Sprintf("Le statut du compte %s est passé de %s à %s",
				e.AccountNumber, e.OldStatus, e.NewStatus),
		}
	default:
		return Message{Kind: e.Type, Destination: e.OwnerID, Body: "Mise à jour de votre compte"}
	}
}
