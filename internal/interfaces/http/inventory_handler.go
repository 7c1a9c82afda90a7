package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario
// (protegido): compras, ventas, ajustes, devoluciones e historial.
type InventoryHandler struct {
	uc       *inventory.MovementUseCase
	products *usecase.ProductUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.MovementUseCase, products *usecase.ProductUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc, products: products}
}

// CreatePurchase godoc
// @Summary      Registrar compra
// @Description  Crea el movimiento de entrada y su lote de costo en la misma transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "product_id, quantity; unit_cost y location_id opcionales"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/purchases [post]
func (h *InventoryHandler) CreatePurchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.Purchase(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResult(res))
}

// UpdatePurchase godoc
// @Summary      Editar compra
// @Description  Modifica cantidad, costo, fecha o nota y reconstruye el FIFO del producto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del movimiento de compra"
// @Param        body  body  dto.UpdateMovementRequest  true  "campos a modificar"
// @Success      200   {object}  dto.MovementResultResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/purchases/{id} [put]
func (h *InventoryHandler) UpdatePurchase(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.UpdateMovement(c.Context(), entity.MovementPurchase, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toMovementResult(res))
}

// DeletePurchase godoc
// @Summary      Eliminar compra
// @Description  Borra la compra y reconstruye el FIFO; falla si sus unidades ya se consumieron.
// @Tags         inventory
// @Security     Bearer
// @Param        id  path  string  true  "ID del movimiento de compra"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/purchases/{id} [delete]
func (h *InventoryHandler) DeletePurchase(c *fiber.Ctx) error {
	if err := h.uc.DeleteMovement(c.Context(), entity.MovementPurchase, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateSale godoc
// @Summary      Registrar venta
// @Description  Consume lotes FIFO y agrega la salida con su base de costo por lote.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleRequest  true  "product_id, quantity; unit_price y location_id opcionales"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con ubicación, disponible y solicitado"
// @Router       /api/inventory/sales [post]
func (h *InventoryHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.Sale(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResult(res))
}

// UpdateSale godoc
// @Summary      Editar venta
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del movimiento de venta"
// @Param        body  body  dto.UpdateMovementRequest  true  "campos a modificar"
// @Success      200   {object}  dto.MovementResultResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/sales/{id} [put]
func (h *InventoryHandler) UpdateSale(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.UpdateMovement(c.Context(), entity.MovementSale, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toMovementResult(res))
}

// DeleteSale godoc
// @Summary      Eliminar venta
// @Tags         inventory
// @Security     Bearer
// @Param        id  path  string  true  "ID del movimiento de venta"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/sales/{id} [delete]
func (h *InventoryHandler) DeleteSale(c *fiber.Ctx) error {
	if err := h.uc.DeleteMovement(c.Context(), entity.MovementSale, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateAdjustment godoc
// @Summary      Registrar ajuste
// @Description  Cantidad positiva crea un lote; negativa consume FIFO. Nota obligatoria.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, quantity con signo, note"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) CreateAdjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.Adjustment(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResult(res))
}

// CreateSupplierReturn godoc
// @Summary      Registrar devolución al proveedor
// @Description  Consume lotes FIFO sin destino, valorada al costo de los lotes consumidos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SupplierReturnRequest  true  "product_id, quantity, note"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/supplier-returns [post]
func (h *InventoryHandler) CreateSupplierReturn(c *fiber.Ctx) error {
	var in dto.SupplierReturnRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.uc.SupplierReturn(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResult(res))
}

// GetMovement godoc
// @Summary      Consultar un movimiento con su plan de consumo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	mov, allocs, err := h.uc.GetMovement(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toMovementResponse(mov, allocs))
}

// History godoc
// @Summary      Historial de movimientos
// @Description  Filtros: product_id o sku, location_id, type, from, to (YYYY-MM-DD), limit, offset. Orden: fecha descendente.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if err := validate.Struct(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	f := repository.HistoryFilter{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		Type:       entity.MovementType(q.Type),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.SKU != "" && f.ProductID == "" {
		p, err := h.products.GetBySKU(c.Context(), q.SKU)
		if err != nil {
			return respondError(c, err)
		}
		f.ProductID = p.ID
	}
	var err error
	if f.From, err = parseDate(q.From); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha from inválida"})
	}
	if f.To, err = parseDate(q.To); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha to inválida"})
	}
	movs, err := h.uc.History(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m, nil))
	}
	return c.JSON(out)
}

// parseDate acepta YYYY-MM-DD o RFC 3339.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toMovementResponse(m *entity.Movement, allocs []*entity.Allocation) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:           m.ID,
		Type:         string(m.Type),
		ProductID:    m.ProductID,
		LocationID:   m.LocationID,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		TransferID:   m.TransferID,
		OutID:        m.OutID,
		IsInitial:    m.IsInitial,
		Note:         m.Note,
		MovementDate: m.MovementDate,
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
	}
	cost := m.UnitCost
	resp.UnitCost = &cost
	for _, a := range allocs {
		resp.Allocations = append(resp.Allocations, dto.AllocationResponse{
			LotID:    a.LotID,
			Quantity: a.Quantity,
			UnitCost: a.UnitCost,
		})
	}
	return resp
}

func toMovementResult(res *inventory.MovementResult) dto.MovementResultResponse {
	return dto.MovementResultResponse{
		Movement:   toMovementResponse(res.Movement, res.Allocations),
		StockAfter: res.StockAfter,
		Warning:    res.Warning,
	}
}
