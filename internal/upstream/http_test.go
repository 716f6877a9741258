package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClientSourceDecodesClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clients/cl-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cl-1","nom":"Diop","prenom":"Awa","statut":"ACTIF"}`))
	}))
	defer srv.Close()

	source := NewHTTPClientSource(srv.URL)
	client, err := source.Client(context.Background(), "cl-1")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if client.Nom != "Diop" || client.Prenom != "Awa" || client.Statut != "ACTIF" {
		t.Fatalf("unexpected client: %+v", client)
	}
}

func TestHTTPSourceNon2xxIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	source := NewHTTPCompteSource(srv.URL)
	_, err := source.Compte(context.Background(), "c1")

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Service != "compte-service" || upErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error detail: %+v", upErr)
	}
}

func TestHTTPSourceHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	source := NewHTTPClientSource(srv.URL)
	_, err := source.Client(ctx, "cl-1")

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestHTTPTransactionSourceWindowQuery(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transactions/compte/c1/releve" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("dateDebut"); got != "2026-03-01T00:00:00Z" {
			t.Errorf("unexpected dateDebut %q", got)
		}
		if got := r.URL.Query().Get("dateFin"); got != "2026-03-31T00:00:00Z" {
			t.Errorf("unexpected dateFin %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"t1","montant":"25","dateTransaction":"2026-03-10T08:00:00Z"}]`))
	}))
	defer srv.Close()

	source := NewHTTPTransactionSource(srv.URL)
	txs, err := source.ByCompteBetween(context.Background(), "c1", from, to)
	if err != nil {
		t.Fatalf("byCompteBetween: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "t1" || txs[0].Montant.String() != "25" {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}
