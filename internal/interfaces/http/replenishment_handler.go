package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

// ReplenishmentHandler expone la lista de reposición.
type ReplenishmentHandler struct {
	uc  *inventory.ReplenishmentUseCase
	log zerolog.Logger
}

// NewReplenishmentHandler construye el handler.
func NewReplenishmentHandler(uc *inventory.ReplenishmentUseCase, log zerolog.Logger) *ReplenishmentHandler {
	return &ReplenishmentHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Lista de reposición
// @Description  Productos con stock en o bajo el punto de reorden, priorizados por salidas recientes.
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        reorderPoint  query     int  false  "Punto de reorden (por defecto 10)"
// @Param        days          query     int  false  "Ventana de demanda en días (por defecto 90)"
// @Success      200           {object}  dto.ReplenishmentResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/transactions/replenishment [get]
func (h *ReplenishmentHandler) List(c *fiber.Ctx) error {
	var q dto.ReplenishmentQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.GenerateReplenishmentList(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
