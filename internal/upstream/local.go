package upstream

import (
	"context"

	"github.com/willbank/willbank/internal/account"
)

// LocalCompteSource serves account snapshots from the in-process ledger
// instead of a remote compte-service, for single-binary deployments.
type LocalCompteSource struct {
	service *account.Service
}

// NewLocalCompteSource adapts the account service to the CompteSource contract.
func NewLocalCompteSource(service *account.Service) *LocalCompteSource {
	return &LocalCompteSource{service: service}
}

// Compte fetches one account from the local ledger.
func (s *LocalCompteSource) Compte(ctx context.Context, id string) (Compte, error) {
	a, err := s.service.Get(ctx, id)
	if err != nil {
		return Compte{}, &Error{Service: "compte-service", Err: err}
	}
	return toCompte(a), nil
}

// ComptesByClient lists a client's accounts from the local ledger.
func (s *LocalCompteSource) ComptesByClient(ctx context.Context, clientID string) ([]Compte, error) {
	accounts, err := s.service.ListByOwner(ctx, clientID)
	if err != nil {
		return nil, &Error{Service: "compte-service", Err: err}
	}
	out := make([]Compte, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toCompte(a))
	}
	return out, nil
}

func toCompte(a account.Account) Compte {
	return Compte{
		ID:                a.ID,
		NumeroCompte:      a.Number,
		ClientID:          a.OwnerID,
		TypeCompte:        string(a.Kind),
		Devise:            a.Currency,
		Solde:             a.Balance,
		DecouvertAutorise: a.AuthorizedOverdraft,
		Statut:            string(a.Status),
	}
}
