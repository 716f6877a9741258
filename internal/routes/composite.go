package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/willbank/willbank/internal/composite"
)

// RegisterCompositeRoutes wires the dashboard and statement endpoints.
func RegisterCompositeRoutes(r fiber.Router, h *composite.Handler) {
	r.Get("/dashboard/:clientId", h.Dashboard)
	r.Get("/releve/:compteId", h.Releve)
	r.Get("/comptes/:clientId/overview", h.Overview)
}
