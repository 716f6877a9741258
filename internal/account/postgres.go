package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, numero_compte, client_id, type_compte, devise,
        solde::text, solde_minimum::text, decouvert_autorise::text, statut,
        date_ouverture, date_fermeture, version`

// PostgresStore persists accounts in PostgreSQL. Optimistic concurrency is
// enforced by the database itself: every update is predicated on the version
// the caller read, and the affected-row count decides between conflict and
// absence.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new account row at version 0.
func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}
	owner, err := uuid.Parse(a.OwnerID)
	if err != nil {
		return fmt.Errorf("parse owner id: %w", err)
	}

	_, err = s.db.Exec(ctx, `INSERT INTO comptes
        (id, numero_compte, client_id, type_compte, devise, solde, solde_minimum,
         decouvert_autorise, statut, date_ouverture, version)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11)`,
		id, a.Number, owner, string(a.Kind), a.Currency,
		a.Balance.String(), a.MinimumBalance.String(), a.AuthorizedOverdraft.String(),
		string(a.Status), a.OpenedAt.UTC(), a.Version)
	return err
}

// Get fetches an account by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM comptes WHERE id = $1`, accountID)
	return scanAccount(row)
}

// GetByNumber fetches an account by its immutable account number.
func (s *PostgresStore) GetByNumber(ctx context.Context, number string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM comptes WHERE numero_compte = $1`, number)
	return scanAccount(row)
}

// ListByOwner returns all accounts belonging to a client.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM comptes WHERE client_id = $1 ORDER BY date_ouverture`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of account rows, used for number generation.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM comptes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Update applies the balance/status/closure fields as a single compare-and-swap
// against expectedVersion.
func (s *PostgresStore) Update(ctx context.Context, a Account, expectedVersion int64) (Account, error) {
	accountID, err := uuid.Parse(a.ID)
	if err != nil {
		return Account{}, ErrNotFound
	}

	var closedAt *time.Time
	if a.ClosedAt != nil {
		t := a.ClosedAt.UTC()
		closedAt = &t
	}

	row := s.db.QueryRow(ctx, `UPDATE comptes
        SET solde = $1::numeric, statut = $2, date_fermeture = $3, version = version + 1
        WHERE id = $4 AND version = $5
        RETURNING `+accountColumns,
		a.Balance.String(), string(a.Status), closedAt, accountID, expectedVersion)

	updated, err := scanAccount(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	// No row matched: distinguish a stale version from a missing account.
	var exists bool
	if qErr := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM comptes WHERE id = $1)`, accountID).Scan(&exists); qErr != nil {
		return Account{}, qErr
	}
	if exists {
		return Account{}, ErrVersionConflict
	}
	return Account{}, ErrNotFound
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a          Account
		id, owner  uuid.UUID
		kind       string
		status     string
		balance    string
		minBalance string
		overdraft  string
		openedAt   time.Time
		closedAt   *time.Time
	)

	err := row.Scan(&id, &a.Number, &owner, &kind, &a.Currency,
		&balance, &minBalance, &overdraft, &status, &openedAt, &closedAt, &a.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	a.ID = id.String()
	a.OwnerID = owner.String()
	a.Kind = Kind(kind)
	a.Status = Status(status)
	a.OpenedAt = openedAt.UTC()
	if closedAt != nil {
		t := closedAt.UTC()
		a.ClosedAt = &t
	}

	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("decode solde: %w", err)
	}
	if a.MinimumBalance, err = decimal.NewFromString(minBalance); err != nil {
		return Account{}, fmt.Errorf("decode solde_minimum: %w", err)
	}
	if a.AuthorizedOverdraft, err = decimal.NewFromString(overdraft); err != nil {
		return Account{}, fmt.Errorf("decode decouvert_autorise: %w", err)
	}

	return a, nil
}
