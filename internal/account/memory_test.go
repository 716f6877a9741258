package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedAccount(t *testing.T, store Store) Account {
	t.Helper()
	a := Account{
		ID:       uuid.NewString(),
		Number:   "SN001202600000001",
		OwnerID:  uuid.NewString(),
		Kind:     KindCurrent,
		Currency: "XOF",
		Balance:  decimal.Zero,
		Status:   StatusActive,
		OpenedAt: time.Now().UTC(),
		Version:  0,
	}
	if err := store.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	return a
}

func TestMemoryStoreSwapContract(t *testing.T) {
	store := NewMemoryStore()
	a := seedAccount(t, store)

	a.Balance = decimal.RequireFromString("40")
	updated, err := store.Update(context.Background(), a, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("swap must bump the version by exactly 1, got %d", updated.Version)
	}
	if updated.Balance.String() != "40" {
		t.Fatalf("unexpected balance %s", updated.Balance)
	}

	// The same expected version again must conflict.
	if _, err := store.Update(context.Background(), a, 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	missing := a
	missing.ID = uuid.NewString()
	if _, err := store.Update(context.Background(), missing, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRejectsDuplicateNumber(t *testing.T) {
	store := NewMemoryStore()
	a := seedAccount(t, store)

	dup := a
	dup.ID = uuid.NewString()
	if err := store.Create(context.Background(), dup); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
}

func TestMemoryStoreLookups(t *testing.T) {
	store := NewMemoryStore()
	a := seedAccount(t, store)

	byID, err := store.Get(context.Background(), a.ID)
	if err != nil || byID.ID != a.ID {
		t.Fatalf("get by id: %v %+v", err, byID)
	}
	byNumber, err := store.GetByNumber(context.Background(), a.Number)
	if err != nil || byNumber.ID != a.ID {
		t.Fatalf("get by number: %v %+v", err, byNumber)
	}
	owned, err := store.ListByOwner(context.Background(), a.OwnerID)
	if err != nil || len(owned) != 1 {
		t.Fatalf("list by owner: %v %+v", err, owned)
	}
	count, err := store.Count(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("count: %v %d", err, count)
	}
}
