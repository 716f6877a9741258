package upstream

import (
	"context"
	"sort"
	"sync"
	"time"
)

// StaticClientSource serves client snapshots from memory. It backs dev mode
// and tests the way a simulated connector would.
type StaticClientSource struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewStaticClientSource builds an empty static source.
func NewStaticClientSource() *StaticClientSource {
	return &StaticClientSource{clients: make(map[string]Client)}
}

// Put registers or replaces a client snapshot.
func (s *StaticClientSource) Put(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// Client returns the stored snapshot, or a placeholder for unknown ids so a
// dashboard can always be exercised locally.
func (s *StaticClientSource) Client(_ context.Context, id string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return Client{ID: id, Statut: "ACTIF"}, nil
}

// StaticTransactionSource serves transactions from memory, keyed by account.
type StaticTransactionSource struct {
	mu  sync.RWMutex
	txs map[string][]Transaction
}

// NewStaticTransactionSource builds an empty static source.
func NewStaticTransactionSource() *StaticTransactionSource {
	return &StaticTransactionSource{txs: make(map[string][]Transaction)}
}

// Add appends a transaction under an account id.
func (s *StaticTransactionSource) Add(compteID string, tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[compteID] = append(s.txs[compteID], tx)
}

// ByCompte returns the transactions of an account, most recent first.
func (s *StaticTransactionSource) ByCompte(_ context.Context, compteID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, len(s.txs[compteID]))
	copy(out, s.txs[compteID])
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateTransaction.After(out[j].DateTransaction)
	})
	return out, nil
}

// ByCompteBetween filters the account's transactions to [from, to].
func (s *StaticTransactionSource) ByCompteBetween(ctx context.Context, compteID string, from, to time.Time) ([]Transaction, error) {
	all, err := s.ByCompte(ctx, compteID)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(all))
	for _, tx := range all {
		if tx.DateTransaction.Before(from) || tx.DateTransaction.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}
