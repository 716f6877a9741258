package account

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrVersionConflict indicates the presented version no longer matches the
	// stored one. Nothing was mutated; the caller must re-read and retry.
	ErrVersionConflict = errors.New("account was modified concurrently")

	// ErrNotActive indicates a mutation was attempted on a blocked or closed account.
	ErrNotActive = errors.New("account is not active")

	// ErrInvalidState indicates a lifecycle transition the current state forbids,
	// such as closing an account whose balance is not zero.
	ErrInvalidState = errors.New("invalid account state for this operation")

	// ErrDuplicateNumber indicates the generated account number already exists.
	ErrDuplicateNumber = errors.New("account number already exists")
)

// InsufficientFundsError rejects a debit that would push the balance below the
// authorized overdraft. It carries the current balance and the overdraft limit
// so callers can report both.
type InsufficientFundsError struct {
	Balance             decimal.Decimal
	AuthorizedOverdraft decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, authorized overdraft %s",
		e.Balance.String(), e.AuthorizedOverdraft.String())
}

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
