package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/validator"
)

// TransactionHandler expone el libro de movimientos de stock.
type TransactionHandler struct {
	uc  *inventory.TransactionUseCase
	log zerolog.Logger
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(uc *inventory.TransactionUseCase, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Registrar movimiento de stock
// @Description  Aplica una entrada o salida. Las salidas sin stock suficiente se rechazan sin modificar nada.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTransactionRequest  true  "Movimiento"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validator.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.ApplyFromRequest(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Bulk godoc
// @Summary      Registrar lote de movimientos
// @Description  Todo o nada. El stock se valida contra el cambio neto por producto; los errores indican "Transaction N".
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.BulkTransactionRequest  true  "Lote"
// @Success      201   {object}  dto.BulkTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions/bulk [post]
func (h *TransactionHandler) Bulk(c *fiber.Ctx) error {
	var in dto.BulkTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ApplyBulkFromRequest(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener transacción
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.GetTransaction(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar transacción
// @Description  Revierte su efecto en el stock. Revertir una entrada ya consumida se rechaza.
// @Tags         transactions
// @Security     Bearer
// @Param        id   path  int  true  "ID de la transacción"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.uc.DeleteTransaction(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      Listar transacciones
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        page       query  int     false  "Página (base 1)"
// @Param        limit      query  int     false  "Tamaño de página (1-100)"
// @Param        sortBy     query  string  false  "created_at, quantity, type, product_id, id"
// @Param        sortOrder  query  string  false  "ASC o DESC (por defecto DESC)"
// @Param        productId  query  int     false  "Filtrar por producto"
// @Param        type       query  string  false  "stock_in o stock_out"
// @Param        startDate  query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        endDate    query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        batchId    query  string  false  "Filtrar por lote"
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	var q dto.TransactionListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListTransactions(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByProduct godoc
// @Summary      Transacciones de un producto
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID del producto"
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/transactions [get]
func (h *TransactionHandler) ListByProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var q dto.TransactionListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListByProduct(c.UserContext(), id, q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByType godoc
// @Summary      Transacciones por tipo
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        type  path      string  true  "stock_in, stock_out, in u out"
// @Success      200   {object}  dto.TransactionListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transactions/type/{type} [get]
func (h *TransactionHandler) ListByType(c *fiber.Ctx) error {
	var q dto.TransactionListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListByType(c.UserContext(), c.Params("type"), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByDateRange godoc
// @Summary      Transacciones en un rango de fechas
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        startDate  query     string  true  "Desde"
// @Param        endDate    query     string  true  "Hasta"
// @Success      200        {object}  dto.TransactionListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/transactions/date-range [get]
func (h *TransactionHandler) ListByDateRange(c *fiber.Ctx) error {
	var q dto.TransactionListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListByDateRange(c.UserContext(), q.StartDate, q.EndDate, q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByBatch godoc
// @Summary      Transacciones de un lote
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        batchId  path      string  true  "ID del lote"
// @Success      200      {object}  dto.TransactionListResponse
// @Router       /api/transactions/batch/{batchId} [get]
func (h *TransactionHandler) ListByBatch(c *fiber.Ctx) error {
	var q dto.TransactionListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListByBatch(c.UserContext(), c.Params("batchId"), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de stock de un producto
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id         path      int     true   "ID del producto"
// @Param        startDate  query     string  false  "Desde"
// @Param        endDate    query     string  false  "Hasta"
// @Success      200        {object}  dto.StockSummaryResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/products/{id}/summary [get]
func (h *TransactionHandler) Summary(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.GetStockSummary(c.UserContext(), id, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// StockAt godoc
// @Summary      Stock de un producto en un instante
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path      int     true  "ID del producto"
// @Param        at   query     string  true  "Instante (RFC3339 o YYYY-MM-DD)"
// @Success      200  {object}  dto.StockAtResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-at [get]
func (h *TransactionHandler) StockAt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.GetStockAt(c.UserContext(), id, c.Query("at"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte de movimientos por producto
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        startDate  query     string  false  "Desde"
// @Param        endDate    query     string  false  "Hasta"
// @Success      200        {object}  dto.MovementReportResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/transactions/report [get]
func (h *TransactionHandler) Report(c *fiber.Ctx) error {
	out, err := h.uc.GetMovementReport(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
