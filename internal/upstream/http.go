package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 5 * time.Second

// httpSource is the shared transport for the typed service clients. Each call
// honors the request context; the per-client timeout is a safety net under
// the composite layer's own deadline.
type httpSource struct {
	service    string
	baseURL    string
	httpClient *http.Client
}

func newHTTPSource(service, baseURL string) httpSource {
	return httpSource{
		service:    service,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (s httpSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return &Error{Service: s.service, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &Error{Service: s.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Service: s.service, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Service: s.service, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// HTTPClientSource calls the client-service REST API.
type HTTPClientSource struct {
	httpSource
}

// NewHTTPClientSource builds a client-service client.
func NewHTTPClientSource(baseURL string) *HTTPClientSource {
	return &HTTPClientSource{newHTTPSource("client-service", baseURL)}
}

// Client fetches one client snapshot.
func (s *HTTPClientSource) Client(ctx context.Context, id string) (Client, error) {
	var out Client
	if err := s.getJSON(ctx, "/api/clients/"+url.PathEscape(id), &out); err != nil {
		return Client{}, err
	}
	return out, nil
}

// HTTPCompteSource calls the compte-service REST API.
type HTTPCompteSource struct {
	httpSource
}

// NewHTTPCompteSource builds a compte-service client.
func NewHTTPCompteSource(baseURL string) *HTTPCompteSource {
	return &HTTPCompteSource{newHTTPSource("compte-service", baseURL)}
}

// Compte fetches one account snapshot.
func (s *HTTPCompteSource) Compte(ctx context.Context, id string) (Compte, error) {
	var out Compte
	if err := s.getJSON(ctx, "/api/comptes/"+url.PathEscape(id), &out); err != nil {
		return Compte{}, err
	}
	return out, nil
}

// ComptesByClient fetches every account of a client.
func (s *HTTPCompteSource) ComptesByClient(ctx context.Context, clientID string) ([]Compte, error) {
	var out []Compte
	if err := s.getJSON(ctx, "/api/comptes/client/"+url.PathEscape(clientID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HTTPTransactionSource calls the transaction-service REST API.
type HTTPTransactionSource struct {
	httpSource
}

// NewHTTPTransactionSource builds a transaction-service client.
func NewHTTPTransactionSource(baseURL string) *HTTPTransactionSource {
	return &HTTPTransactionSource{newHTTPSource("transaction-service", baseURL)}
}

// ByCompte fetches the recent transactions of an account.
func (s *HTTPTransactionSource) ByCompte(ctx context.Context, compteID string) ([]Transaction, error) {
	var out []Transaction
	if err := s.getJSON(ctx, "/api/transactions/compte/"+url.PathEscape(compteID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByCompteBetween fetches the transactions of an account within a time window.
func (s *HTTPTransactionSource) ByCompteBetween(ctx context.Context, compteID string, from, to time.Time) ([]Transaction, error) {
	q := url.Values{}
	q.Set("dateDebut", from.UTC().Format(time.RFC3339))
	q.Set("dateFin", to.UTC().Format(time.RFC3339))

	var out []Transaction
	path := "/api/transactions/compte/" + url.PathEscape(compteID) + "/releve?" + q.Encode()
	if err := s.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
