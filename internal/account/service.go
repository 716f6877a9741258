package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/willbank/willbank/internal/events"
)

const emitTimeout = 2 * time.Second

// Service is the balance mutation engine. Every write is a single
// compare-and-swap on (id, version) in the store; the service never retries on
// contention, never holds cross-request locks, and emits domain events
// asynchronously after the mutation committed.
type Service struct {
	store   Store
	emitter *events.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds the mutation service.
func NewService(store Store, emitter *events.Emitter, logger *slog.Logger) *Service {
	return &Service{store: store, emitter: emitter, logger: logger, now: time.Now}
}

// OpenInput captures data required to open an account.
type OpenInput struct {
	OwnerID             string
	Kind                Kind
	Currency            string
	AuthorizedOverdraft decimal.Decimal
}

// Open provisions an ACTIF account with a zero balance at version 0 and emits
// a creation event.
func (s *Service) Open(ctx context.Context, input OpenInput) (Account, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Account{}, &ValidationError{Field: "clientId", Msg: "must be a valid UUID"}
	}
	if input.Kind != KindCurrent && input.Kind != KindSavings {
		return Account{}, &ValidationError{Field: "typeCompte", Msg: "unknown account kind"}
	}
	if input.AuthorizedOverdraft.IsNegative() {
		return Account{}, &ValidationError{Field: "decouvertAutorise", Msg: "must not be negative"}
	}

	currency := input.Currency
	if currency == "" {
		currency = "XOF"
	}

	number, err := s.nextNumber(ctx)
	if err != nil {
		return Account{}, err
	}

	a := Account{
		ID:                  uuid.NewString(),
		Number:              number,
		OwnerID:             input.OwnerID,
		Kind:                input.Kind,
		Currency:            currency,
		Balance:             decimal.Zero,
		MinimumBalance:      decimal.Zero,
		AuthorizedOverdraft: input.AuthorizedOverdraft,
		Status:              StatusActive,
		OpenedAt:            s.now().UTC(),
		Version:             0,
	}

	if err := s.store.Create(ctx, a); err != nil {
		return Account{}, err
	}

	s.emitAsync(events.Event{
		Type:          events.TypeAccountCreated,
		OccurredAt:    a.OpenedAt,
		AccountID:     a.ID,
		AccountNumber: a.Number,
		OwnerID:       a.OwnerID,
	})

	return a, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.store.Get(ctx, id)
}

// GetByNumber fetches an account by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Account, error) {
	return s.store.GetByNumber(ctx, number)
}

// ListByOwner returns the accounts of a client.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// MutateInput captures a balance mutation request. ExpectedVersion must be the
// version the caller last observed.
type MutateInput struct {
	AccountID       string
	Amount          decimal.Decimal
	Operation       Operation
	ExpectedVersion int64
}

// Mutate applies a credit or debit under optimistic concurrency. A debit that
// would push the balance below -AuthorizedOverdraft is rejected with the
// current balance and overdraft in the error. On success the store swap bumps
// the version by exactly 1 and a balance event is emitted asynchronously.
func (s *Service) Mutate(ctx context.Context, input MutateInput) (Account, error) {
	if !input.Amount.IsPositive() {
		return Account{}, &ValidationError{Field: "montant", Msg: "must be strictly positive"}
	}
	if input.Operation != OperationCredit && input.Operation != OperationDebit {
		return Account{}, &ValidationError{Field: "operation", Msg: "must be CREDIT or DEBIT"}
	}

	a, err := s.store.Get(ctx, input.AccountID)
	if err != nil {
		return Account{}, err
	}
	if a.Version != input.ExpectedVersion {
		return Account{}, ErrVersionConflict
	}
	if a.Status != StatusActive {
		return Account{}, ErrNotActive
	}

	oldBalance := a.Balance
	var newBalance decimal.Decimal
	if input.Operation == OperationCredit {
		newBalance = oldBalance.Add(input.Amount)
	} else {
		newBalance = oldBalance.Sub(input.Amount)
		if newBalance.LessThan(a.Floor()) {
			return Account{}, &InsufficientFundsError{
				Balance:             oldBalance,
				AuthorizedOverdraft: a.AuthorizedOverdraft,
			}
		}
	}

	a.Balance = newBalance
	updated, err := s.store.Update(ctx, a, input.ExpectedVersion)
	if err != nil {
		return Account{}, err
	}

	s.emitAsync(events.Event{
		Type:          events.TypeBalanceUpdated,
		OccurredAt:    s.now().UTC(),
		AccountID:     updated.ID,
		AccountNumber: updated.Number,
		OwnerID:       updated.OwnerID,
		Operation:     string(input.Operation),
		Amount:        input.Amount.String(),
		OldBalance:    oldBalance.String(),
		NewBalance:    updated.Balance.String(),
	})

	return updated, nil
}

// Close transitions an account to FERME. Only an exactly-zero balance may be
// closed; closure is terminal.
func (s *Service) Close(ctx context.Context, id string) (Account, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if a.Status == StatusClosed {
		return Account{}, ErrInvalidState
	}
	if !a.Balance.IsZero() {
		return Account{}, ErrInvalidState
	}

	oldStatus := a.Status
	closedAt := s.now().UTC()
	a.Status = StatusClosed
	a.ClosedAt = &closedAt

	updated, err := s.store.Update(ctx, a, a.Version)
	if err != nil {
		return Account{}, err
	}

	s.emitStatusChanged(updated, oldStatus)
	return updated, nil
}

// ChangeStatus performs an unconditional ACTIF/BLOQUE transition. A request
// for FERME is routed through Close so the zero-balance rule cannot be
// bypassed.
func (s *Service) ChangeStatus(ctx context.Context, id string, status Status) (Account, error) {
	if status == StatusClosed {
		return s.Close(ctx, id)
	}
	if status != StatusActive && status != StatusBlocked {
		return Account{}, &ValidationError{Field: "statut", Msg: "unknown status"}
	}

	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if a.Status == StatusClosed {
		return Account{}, ErrInvalidState
	}

	oldStatus := a.Status
	a.Status = status

	updated, err := s.store.Update(ctx, a, a.Version)
	if err != nil {
		return Account{}, err
	}

	s.emitStatusChanged(updated, oldStatus)
	return updated, nil
}

// CheckAvailable reports whether the account is active and could cover a debit
// of amount without breaching the authorized overdraft. Read-only: no version
// is consumed.
func (s *Service) CheckAvailable(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if a.Status != StatusActive {
		return false, nil
	}
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.Floor()), nil
}

func (s *Service) emitStatusChanged(a Account, old Status) {
	s.emitAsync(events.Event{
		Type:          events.TypeStatusChanged,
		OccurredAt:    s.now().UTC(),
		AccountID:     a.ID,
		AccountNumber: a.Number,
		OwnerID:       a.OwnerID,
		OldStatus:     string(old),
		NewStatus:     string(a.Status),
	})
}

// emitAsync publishes after the mutation committed; emission failure never
// rolls anything back.
func (s *Service) emitAsync(e events.Event) {
	if s.emitter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		s.emitter.Emit(ctx, e)
	}()
}

// nextNumber generates an account number: country/agency prefix, year, then
// an 8-digit sequence.
func (s *Service) nextNumber(ctx context.Context) (string, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SN001%d%08d", s.now().Year(), count+1), nil
}
