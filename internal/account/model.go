package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the product type of an account.
type Kind string

const (
	KindCurrent Kind = "COURANT"
	KindSavings Kind = "EPARGNE"
)

// Status is the lifecycle state of an account. Closure is terminal; closed
// accounts are never physically deleted.
type Status string

const (
	StatusActive  Status = "ACTIF"
	StatusBlocked Status = "BLOQUE"
	StatusClosed  Status = "FERME"
)

// Operation is the direction of a balance mutation.
type Operation string

const (
	OperationCredit Operation = "CREDIT"
	OperationDebit  Operation = "DEBIT"
)

// Account is the ledger record for a single bank account. Version is the sole
// concurrency token: it starts at 0 and increments by exactly 1 on every
// successful mutation.
type Account struct {
	ID                  string
	Number              string
	OwnerID             string
	Kind                Kind
	Currency            string
	Balance             decimal.Decimal
	MinimumBalance      decimal.Decimal
	AuthorizedOverdraft decimal.Decimal
	Status              Status
	OpenedAt            time.Time
	ClosedAt            *time.Time
	Version             int64
}

// Floor returns the lowest balance the account may reach while active.
func (a Account) Floor() decimal.Decimal {
	return a.AuthorizedOverdraft.Neg()
}

// ParseKind accepts both the wire names and their English aliases.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case string(KindCurrent), "CURRENT":
		return KindCurrent, true
	case string(KindSavings), "SAVINGS":
		return KindSavings, true
	}
	return "", false
}

// ParseStatus accepts both the wire names and their English aliases.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case string(StatusActive), "ACTIVE":
		return StatusActive, true
	case string(StatusBlocked), "BLOCKED":
		return StatusBlocked, true
	case string(StatusClosed), "CLOSED":
		return StatusClosed, true
	}
	return "", false
}

// ParseOperation validates a mutation direction.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case string(OperationCredit):
		return OperationCredit, true
	case string(OperationDebit):
		return OperationDebit, true
	}
	return "", false
}
