package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// TransferHandler maneja los traslados de stock entre ubicaciones.
type TransferHandler struct {
	uc *inventory.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar traslado
// @Description  Mueve varias líneas entre dos ubicaciones de forma atómica, preservando el costo de cada lote consumido.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "destino y líneas; from_location_id vacío usa la central"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK: ninguna línea se aplica"
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	tr, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(tr))
}

// Get godoc
// @Summary      Consultar traslado
// @Description  Reconstruye el traslado desde sus movimientos enlazados.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse  "INVALID_LINKAGE: movimientos inconsistentes"
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	tr, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(tr))
}

// UpdateLine godoc
// @Summary      Editar línea de traslado
// @Description  Reversa la línea y la vuelve a aplicar con los nuevos valores, conservando el ID del traslado.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        movement_id  path  string  true  "ID de un movimiento transfer_out de la línea"
// @Param        body  body  dto.UpdateTransferLineRequest  true  "cantidad, fecha o nota"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "CONSTRAINT: el lote destino ya fue consumido"
// @Router       /api/transfers/{movement_id} [put]
func (h *TransferHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateTransferLineRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	tr, err := h.uc.UpdateLine(c.Context(), GetUserID(c), c.Params("movement_id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(tr))
}

// DeleteLine godoc
// @Summary      Eliminar línea de traslado
// @Description  Reversa la línea completa devolviendo el stock al origen.
// @Tags         transfers
// @Security     Bearer
// @Param        movement_id  path  string  true  "ID de un movimiento transfer_out de la línea"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "CONSTRAINT: el lote destino ya fue consumido"
// @Router       /api/transfers/{movement_id} [delete]
func (h *TransferHandler) DeleteLine(c *fiber.Ctx) error {
	if err := h.uc.DeleteLine(c.Context(), c.Params("movement_id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toTransferResponse(tr *entity.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:             tr.ID,
		FromLocationID: tr.FromLocationID,
		ToLocationID:   tr.ToLocationID,
		MovementDate:   tr.MovementDate,
		Note:           tr.Note,
	}
	for _, line := range tr.Lines {
		resp.Lines = append(resp.Lines, dto.TransferLineResponse{
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			Quantity:     line.Quantity,
			MovementsOut: line.MovementsOut,
			MovementsIn:  line.MovementsIn,
		})
	}
	return resp
}
