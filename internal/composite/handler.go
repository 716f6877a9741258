package composite

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/willbank/willbank/internal/upstream"
)

// Handler exposes the composite endpoints. The dashboard path always answers
// 200: a degraded view replaces any failure.
type Handler struct {
	controller *Controller
	statements *StatementService
}

// NewHandler builds the composite HTTP handler.
func NewHandler(controller *Controller, statements *StatementService) *Handler {
	return &Handler{controller: controller, statements: statements}
}

// Dashboard serves the composed client view.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	view := h.controller.Dashboard(c.UserContext(), c.Params("clientId"))
	return c.Status(http.StatusOK).JSON(view)
}

// Releve serves an account statement for ?dateDebut=&dateFin= (RFC 3339, with
// a date-time fallback without offset).
func (h *Handler) Releve(c *fiber.Ctx) error {
	debut, err := parseTime(c.Query("dateDebut"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "dateDebut must be an RFC 3339 timestamp")
	}
	fin, err := parseTime(c.Query("dateFin"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "dateFin must be an RFC 3339 timestamp")
	}
	if fin.Before(debut) {
		return fiber.NewError(http.StatusBadRequest, "dateFin must not precede dateDebut")
	}

	releve, err := h.statements.Releve(c.UserContext(), c.Params("compteId"), debut, fin)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(releve)
}

// Overview serves the per-client account summary.
func (h *Handler) Overview(c *fiber.Ctx) error {
	overview, err := h.statements.Overview(c.UserContext(), c.Params("clientId"))
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(overview)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func upstreamError(err error) error {
	var ue *upstream.Error
	if errors.As(err, &ue) {
		return fiber.NewError(http.StatusBadGateway, ue.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
