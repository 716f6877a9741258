package events

import (
	"context"
	"time"
)

// Event types published by the ledger side.
const (
	TypeAccountCreated = "COMPTE_CREATED"
	TypeBalanceUpdated = "SOLDE_UPDATED"
	TypeStatusChanged  = "COMPTE_STATUS_CHANGED"
)

// Topics, one per transition type.
const (
	TopicAccountCreated = "compte.created"
	TopicBalanceUpdated = "compte.solde.updated"
	TopicStatusChanged  = "compte.status.changed"
)

// Event is an immutable, transient domain event: the transition type, when it
// happened, the subject account, and only the before/after fields relevant to
// that transition. Nothing here is stored durably by the publisher.
type Event struct {
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurredAt"`
	AccountID     string    `json:"compteId"`
	AccountNumber string    `json:"numeroCompte,omitempty"`
	OwnerID       string    `json:"clientId,omitempty"`

	Operation  string `json:"operation,omitempty"`
	Amount     string `json:"montant,omitempty"`
	OldBalance string `json:"ancienSolde,omitempty"`
	NewBalance string `json:"nouveauSolde,omitempty"`
	OldStatus  string `json:"ancienStatut,omitempty"`
	NewStatus  string `json:"nouveauStatut,omitempty"`
}

// TopicFor maps an event type to its publication topic.
func TopicFor(eventType string) string {
	switch eventType {
	case TypeAccountCreated:
		return TopicAccountCreated
	case TypeBalanceUpdated:
		return TopicBalanceUpdated
	case TypeStatusChanged:
		return TopicStatusChanged
	default:
		return "compte.events"
	}
}

// Handler consumes a delivered event.
type Handler func(ctx context.Context, e Event)

// Bus is the message bus abstraction decoupling the ledger and its
// notification collaborators from any specific transport.
type Bus interface {
	Publish(ctx context.Context, topic string, e Event) error
	// Subscribe registers a handler for a topic and returns an unsubscribe
	// function.
	Subscribe(topic string, h Handler) (func(), error)
}
