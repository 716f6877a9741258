package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Client is the client-service snapshot consumed by the composite layer.
type Client struct {
	ID        string `json:"id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Statut    string `json:"statut"`
}

// Compte is the compte-service account snapshot.
type Compte struct {
	ID                string          `json:"id"`
	NumeroCompte      string          `json:"numeroCompte"`
	ClientID          string          `json:"clientId"`
	TypeCompte        string          `json:"typeCompte"`
	Devise            string          `json:"devise"`
	Solde             decimal.Decimal `json:"solde"`
	DecouvertAutorise decimal.Decimal `json:"decouvertAutorise"`
	Statut            string          `json:"statut"`
}

// Transaction is the transaction-service record.
type Transaction struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	Montant             decimal.Decimal `json:"montant"`
	Frais               decimal.Decimal `json:"frais"`
	CompteSourceID      string          `json:"compteSourceId,omitempty"`
	CompteDestinationID string          `json:"compteDestinationId,omitempty"`
	DateTransaction     time.Time       `json:"dateTransaction"`
	Statut              string          `json:"statut"`
}

// ClientSource fetches client snapshots.
type ClientSource interface {
	Client(ctx context.Context, id string) (Client, error)
}

// CompteSource fetches account snapshots.
type CompteSource interface {
	Compte(ctx context.Context, id string) (Compte, error)
	ComptesByClient(ctx context.Context, clientID string) ([]Compte, error)
}

// TransactionSource fetches transaction history.
type TransactionSource interface {
	ByCompte(ctx context.Context, compteID string) ([]Transaction, error)
	ByCompteBetween(ctx context.Context, compteID string, from, to time.Time) ([]Transaction, error)
}

// Error wraps a failed upstream call: transport failure, timeout, or a
// non-2xx response.
type Error struct {
	Service string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s unavailable: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
