package composite

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/willbank/willbank/internal/upstream"
)

// Aggregator fans out to the source services and joins the results. The first
// stage fetches the client snapshot and the account list concurrently; either
// failing fails the aggregation. The second stage fetches each account's
// transactions concurrently; a per-account failure is logged and absorbed as
// an empty result for that account.
type Aggregator struct {
	clients      upstream.ClientSource
	comptes      upstream.CompteSource
	transactions upstream.TransactionSource
	logger       *slog.Logger
}

// NewAggregator wires the three sources.
func NewAggregator(clients upstream.ClientSource, comptes upstream.CompteSource, transactions upstream.TransactionSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{clients: clients, comptes: comptes, transactions: transactions, logger: logger}
}

// Fetch gathers everything needed to compose a dashboard for clientID. The
// context carries the whole-operation deadline; its expiry abandons all
// in-flight calls.
func (a *Aggregator) Fetch(ctx context.Context, clientID string) (upstream.Client, []upstream.Compte, []upstream.Transaction, error) {
	var (
		client  upstream.Client
		comptes []upstream.Compte
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = a.clients.Client(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		comptes, err = a.comptes.ComptesByClient(gctx, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return upstream.Client{}, nil, nil, err
	}

	var (
		mu  sync.Mutex
		all []upstream.Transaction
		wg  sync.WaitGroup
	)
	for _, compte := range comptes {
		compte := compte
		wg.Add(1)
		go func() {
			defer wg.Done()
			txs, err := a.transactions.ByCompte(ctx, compte.ID)
			if err != nil {
				a.logger.Warn("transactions fetch failed, treating as empty",
					"compte_id", compte.ID, "error", err)
				return
			}
			txs = sanitize(txs)
			mu.Lock()
			all = append(all, txs...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return upstream.Client{}, nil, nil, err
	}

	return client, comptes, all, nil
}

// sanitize drops records the composer must never see: missing timestamps or
// non-positive amounts.
func sanitize(txs []upstream.Transaction) []upstream.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if tx.DateTransaction.IsZero() || !tx.Montant.IsPositive() {
			continue
		}
		out = append(out, tx)
	}
	return out
}
