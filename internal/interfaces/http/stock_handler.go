package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
)

// StockHandler sirve la proyección de solo lectura del stock.
type StockHandler struct {
	uc *inventory.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// List godoc
// @Summary      Listado de stock
// @Description  Disponible por producto con costo histórico mínimo y precio de venta. Filtros: q (texto libre), location_id.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	var q dto.StockQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if err := validate.Struct(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	items, err := h.uc.List(c.Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetBySKU godoc
// @Summary      Stock de un producto por SKU
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        sku  path  string  true  "SKU del producto"
// @Param        location_id  query  string  false  "limitar a una ubicación"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{sku} [get]
func (h *StockHandler) GetBySKU(c *fiber.Ctx) error {
	item, err := h.uc.GetBySKU(c.Context(), c.Params("sku"), c.Query("location_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}
