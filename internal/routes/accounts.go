package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/willbank/willbank/internal/account"
)

// RegisterAccountRoutes wires the account ledger endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	comptes := r.Group("/comptes")
	comptes.Post("/", h.Create)
	comptes.Get("/numero/:numero", h.GetByNumero)
	comptes.Get("/client/:clientId", h.ListByClient)
	comptes.Get("/:id", h.Get)
	comptes.Put("/:id/solde", h.UpdateSolde)
	comptes.Put("/:id/statut", h.ChangeStatut)
	comptes.Get("/:id/solde/disponible", h.SoldeDisponible)
	comptes.Delete("/:id", h.Close)
}
