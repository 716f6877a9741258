package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes the account ledger over HTTP. Mutation failures are typed:
// the response body is always {code, message}.
type Handler struct {
	service *Service
}

// NewHandler builds the account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type accountResponse struct {
	ID                string          `json:"id"`
	NumeroCompte      string          `json:"numeroCompte"`
	ClientID          string          `json:"clientId"`
	TypeCompte        string          `json:"typeCompte"`
	Devise            string          `json:"devise"`
	Solde             decimal.Decimal `json:"solde"`
	SoldeMinimum      decimal.Decimal `json:"soldeMinimum"`
	DecouvertAutorise decimal.Decimal `json:"decouvertAutorise"`
	Statut            string          `json:"statut"`
	DateOuverture     time.Time       `json:"dateOuverture"`
	DateFermeture     *time.Time      `json:"dateFermeture,omitempty"`
	Version           int64           `json:"version"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID:                a.ID,
		NumeroCompte:      a.Number,
		ClientID:          a.OwnerID,
		TypeCompte:        string(a.Kind),
		Devise:            a.Currency,
		Solde:             a.Balance,
		SoldeMinimum:      a.MinimumBalance,
		DecouvertAutorise: a.AuthorizedOverdraft,
		Statut:            string(a.Status),
		DateOuverture:     a.OpenedAt,
		DateFermeture:     a.ClosedAt,
		Version:           a.Version,
	}
}

type createRequest struct {
	ClientID          string          `json:"clientId"`
	TypeCompte        string          `json:"typeCompte"`
	Devise            string          `json:"devise"`
	DecouvertAutorise decimal.Decimal `json:"decouvertAutorise"`
}

// Create opens a new account for a client.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, &ValidationError{Msg: err.Error()})
	}
	kind, ok := ParseKind(req.TypeCompte)
	if !ok {
		return writeError(c, &ValidationError{Field: "typeCompte", Msg: "unknown account kind"})
	}
	a, err := h.service.Open(c.UserContext(), OpenInput{
		OwnerID:             req.ClientID,
		Kind:                kind,
		Currency:            req.Devise,
		AuthorizedOverdraft: req.DecouvertAutorise,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(a))
}

// Get returns an account by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	a, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(a))
}

// GetByNumero returns an account by account number.
func (h *Handler) GetByNumero(c *fiber.Ctx) error {
	a, err := h.service.GetByNumber(c.UserContext(), c.Params("numero"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(a))
}

// ListByClient returns every account of a client.
func (h *Handler) ListByClient(c *fiber.Ctx) error {
	accounts, err := h.service.ListByOwner(c.UserContext(), c.Params("clientId"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	return c.JSON(out)
}

type soldeUpdateRequest struct {
	Montant   decimal.Decimal `json:"montant"`
	Operation string          `json:"operation"`
	Version   int64           `json:"version"`
}

// UpdateSolde applies a CREDIT or DEBIT under optimistic concurrency. The
// caller must present the version it last observed; on VERSION_CONFLICT it
// must re-read and decide whether to retry.
func (h *Handler) UpdateSolde(c *fiber.Ctx) error {
	var req soldeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, &ValidationError{Msg: err.Error()})
	}
	op, ok := ParseOperation(req.Operation)
	if !ok {
		return writeError(c, &ValidationError{Field: "operation", Msg: "must be CREDIT or DEBIT"})
	}
	a, err := h.service.Mutate(c.UserContext(), MutateInput{
		AccountID:       c.Params("id"),
		Amount:          req.Montant,
		Operation:       op,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(a))
}

type statusRequest struct {
	Statut string `json:"statut"`
}

// ChangeStatut transitions the account status. FERME is subject to the
// zero-balance closure rule.
func (h *Handler) ChangeStatut(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, &ValidationError{Msg: err.Error()})
	}
	status, ok := ParseStatus(req.Statut)
	if !ok {
		return writeError(c, &ValidationError{Field: "statut", Msg: "unknown status"})
	}
	a, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(a))
}

// Close closes a zero-balance account.
func (h *Handler) Close(c *fiber.Ctx) error {
	a, err := h.service.Close(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(a))
}

// SoldeDisponible reports whether a debit of ?montant= could be covered.
func (h *Handler) SoldeDisponible(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("montant"))
	if err != nil {
		return writeError(c, &ValidationError{Field: "montant", Msg: "must be a decimal amount"})
	}
	ok, err := h.service.CheckAvailable(c.UserContext(), c.Params("id"), amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"disponible": ok})
}

func writeError(c *fiber.Ctx, err error) error {
	var insufficient *InsufficientFundsError
	var validation *ValidationError

	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(errorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, ErrVersionConflict):
		return c.Status(http.StatusConflict).JSON(errorResponse{Code: "VERSION_CONFLICT", Message: err.Error()})
	case errors.Is(err, ErrNotActive):
		return c.Status(http.StatusConflict).JSON(errorResponse{Code: "ACCOUNT_NOT_ACTIVE", Message: err.Error()})
	case errors.As(err, &insufficient):
		return c.Status(http.StatusUnprocessableEntity).JSON(errorResponse{Code: "INSUFFICIENT_FUNDS", Message: insufficient.Error()})
	case errors.Is(err, ErrInvalidState):
		return c.Status(http.StatusConflict).JSON(errorResponse{Code: "BUSINESS_RULE_VIOLATION", Message: err.Error()})
	case errors.As(err, &validation):
		return c.Status(http.StatusBadRequest).JSON(errorResponse{Code: "VALIDATION_ERROR", Message: validation.Error()})
	default:
		return c.Status(http.StatusInternalServerError).JSON(errorResponse{Code: "INTERNAL_ERROR", Message: err.Error()})
	}
}
