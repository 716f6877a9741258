package composite

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/willbank/willbank/internal/upstream"
)

// maxRecentTransactions bounds the dashboard transaction list.
const maxRecentTransactions = 10

// Statistiques are the aggregate figures of a dashboard.
type Statistiques struct {
	NombreComptes          int             `json:"nombreComptes"`
	SoldeTotal             decimal.Decimal `json:"soldeTotal"`
	NombreTransactionsMois int             `json:"nombreTransactionsMois"`
}

// Dashboard is the composed view of a client's financial state. It is
// ephemeral: composed fresh, or served verbatim from the cache, never
// partially persisted. Degraded marks a fallback view so callers can tell it
// apart from a client who genuinely has no accounts.
type Dashboard struct {
	Client                *upstream.Client       `json:"client"`
	Comptes               []upstream.Compte      `json:"comptes"`
	DernieresTransactions []upstream.Transaction `json:"dernieresTransactions"`
	Statistiques          Statistiques           `json:"statistiques"`
	Degraded              bool                   `json:"degraded"`
}

// Compose merges fetched data into a Dashboard. Pure and deterministic for a
// given now: no I/O, no error paths — malformed records must have been
// filtered by the aggregator.
func Compose(client upstream.Client, comptes []upstream.Compte, transactions []upstream.Transaction, now time.Time) Dashboard {
	recent := make([]upstream.Transaction, len(transactions))
	copy(recent, transactions)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].DateTransaction.After(recent[j].DateTransaction)
	})
	if len(recent) > maxRecentTransactions {
		recent = recent[:maxRecentTransactions]
	}

	soldeTotal := decimal.Zero
	for _, compte := range comptes {
		soldeTotal = soldeTotal.Add(compte.Solde)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	txMois := 0
	for _, tx := range transactions {
		if tx.DateTransaction.Before(monthStart) || tx.DateTransaction.After(now) {
			continue
		}
		txMois++
	}

	if comptes == nil {
		comptes = []upstream.Compte{}
	}

	return Dashboard{
		Client:                &client,
		Comptes:               comptes,
		DernieresTransactions: recent,
		Statistiques: Statistiques{
			NombreComptes:          len(comptes),
			SoldeTotal:             soldeTotal,
			NombreTransactionsMois: txMois,
		},
	}
}

// FallbackDashboard is the degraded view: structurally complete, empty and
// zeroed. Every aggregation request gets a successful envelope, at worst this
// one.
func FallbackDashboard() Dashboard {
	return Dashboard{
		Client:                nil,
		Comptes:               []upstream.Compte{},
		DernieresTransactions: []upstream.Transaction{},
		Statistiques: Statistiques{
			NombreComptes:          0,
			SoldeTotal:             decimal.Zero,
			NombreTransactionsMois: 0,
		},
		Degraded: true,
	}
}
