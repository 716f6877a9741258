package composite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/willbank/willbank/internal/upstream"
)

// Periode bounds a statement window.
type Periode struct {
	Debut time.Time `json:"debut"`
	Fin   time.Time `json:"fin"`
}

// Mouvements aggregates the credits and debits of a statement window. Debits
// include the transaction fee when present.
type Mouvements struct {
	TotalCredits  decimal.Decimal `json:"totalCredits"`
	TotalDebits   decimal.Decimal `json:"totalDebits"`
	NombreCredits int             `json:"nombreCredits"`
	NombreDebits  int             `json:"nombreDebits"`
}

// Releve is an account statement over a time window.
type Releve struct {
	Compte             upstream.Compte        `json:"compte"`
	Periode            Periode                `json:"periode"`
	SoldeActuel        decimal.Decimal        `json:"soldeActuel"`
	Mouvements         Mouvements             `json:"mouvements"`
	Transactions       []upstream.Transaction `json:"transactions"`
	NombreTransactions int                    `json:"nombreTransactions"`
}

// Overview summarizes a client's accounts.
type Overview struct {
	ClientID            string            `json:"clientId"`
	Comptes             []upstream.Compte `json:"comptes"`
	SoldeTotal          decimal.Decimal   `json:"soldeTotal"`
	NombreComptes       int               `json:"nombreComptes"`
	NombreComptesActifs int               `json:"nombreComptesActifs"`
}

// StatementService builds statements and account overviews. Unlike the
// dashboard path it has no fallback: upstream failures surface to the caller.
type StatementService struct {
	comptes      upstream.CompteSource
	transactions upstream.TransactionSource
	cache        ViewCache
	ttl          time.Duration
	logger       *slog.Logger
}

// NewStatementService wires the statement composer.
func NewStatementService(comptes upstream.CompteSource, transactions upstream.TransactionSource, cache ViewCache, ttl time.Duration, logger *slog.Logger) *StatementService {
	return &StatementService{comptes: comptes, transactions: transactions, cache: cache, ttl: ttl, logger: logger}
}

func releveKey(compteID string, debut, fin time.Time) string {
	return fmt.Sprintf("releve:%s:%d:%d", compteID, debut.Unix(), fin.Unix())
}

// Releve fetches the account and its windowed transactions concurrently and
// derives the movement totals.
func (s *StatementService) Releve(ctx context.Context, compteID string, debut, fin time.Time) (Releve, error) {
	key := releveKey(compteID, debut, fin)
	if payload, err := s.cache.Get(ctx, key); err == nil {
		var cached Releve
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("releve cache lookup failed", "compte_id", compteID, "error", err)
	}

	var (
		compte upstream.Compte
		txs    []upstream.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		compte, err = s.comptes.Compte(gctx, compteID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.transactions.ByCompteBetween(gctx, compteID, debut, fin)
		return err
	})
	if err := g.Wait(); err != nil {
		return Releve{}, err
	}

	mouvements := Mouvements{TotalCredits: decimal.Zero, TotalDebits: decimal.Zero}
	for _, tx := range txs {
		if tx.CompteDestinationID == compteID {
			mouvements.TotalCredits = mouvements.TotalCredits.Add(tx.Montant)
			mouvements.NombreCredits++
		}
		if tx.CompteSourceID == compteID {
			mouvements.TotalDebits = mouvements.TotalDebits.Add(tx.Montant).Add(tx.Frais)
			mouvements.NombreDebits++
		}
	}

	if txs == nil {
		txs = []upstream.Transaction{}
	}

	releve := Releve{
		Compte:             compte,
		Periode:            Periode{Debut: debut, Fin: fin},
		SoldeActuel:        compte.Solde,
		Mouvements:         mouvements,
		Transactions:       txs,
		NombreTransactions: len(txs),
	}

	if payload, err := json.Marshal(releve); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn("releve cache write failed", "compte_id", compteID, "error", err)
		}
	}

	return releve, nil
}

// Overview lists a client's accounts with summed balance and active count.
func (s *StatementService) Overview(ctx context.Context, clientID string) (Overview, error) {
	comptes, err := s.comptes.ComptesByClient(ctx, clientID)
	if err != nil {
		return Overview{}, err
	}

	soldeTotal := decimal.Zero
	actifs := 0
	for _, compte := range comptes {
		soldeTotal = soldeTotal.Add(compte.Solde)
		if compte.Statut == "ACTIF" {
			actifs++
		}
	}

	if comptes == nil {
		comptes = []upstream.Compte{}
	}

	return Overview{
		ClientID:            clientID,
		Comptes:             comptes,
		SoldeTotal:          soldeTotal,
		NombreComptes:       len(comptes),
		NombreComptesActifs: actifs,
	}, nil
}
