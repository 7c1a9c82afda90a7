package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest registra una entrada de mercadería. UnitCost nulo usa el
// costo por defecto del producto.
type PurchaseRequest struct {
	ProductID    string           `json:"product_id" validate:"required,uuid4"`
	LocationID   string           `json:"location_id" validate:"omitempty,uuid4"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"required"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	MovementDate *time.Time       `json:"movement_date"`
	IsInitial    bool             `json:"is_initial"`
	Note         string           `json:"note" validate:"max=500"`
}

// SaleRequest registra una salida por venta. UnitPrice nulo usa el precio
// por defecto del producto.
type SaleRequest struct {
	ProductID    string           `json:"product_id" validate:"required,uuid4"`
	LocationID   string           `json:"location_id" validate:"omitempty,uuid4"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	MovementDate *time.Time       `json:"movement_date"`
	Note         string           `json:"note" validate:"max=500"`
}

// AdjustmentRequest corrige stock en cualquier dirección: Quantity positiva
// crea un lote al costo dado, negativa consume FIFO.
type AdjustmentRequest struct {
	ProductID    string           `json:"product_id" validate:"required,uuid4"`
	LocationID   string           `json:"location_id" validate:"omitempty,uuid4"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"required"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	MovementDate *time.Time       `json:"movement_date"`
	IsInitial    bool             `json:"is_initial"`
	Note         string           `json:"note" validate:"required,max=500"`
}

// SupplierReturnRequest registra una devolución al proveedor (salida FIFO
// valorada al costo de los lotes consumidos).
type SupplierReturnRequest struct {
	ProductID    string          `json:"product_id" validate:"required,uuid4"`
	LocationID   string          `json:"location_id" validate:"omitempty,uuid4"`
	Quantity     decimal.Decimal `json:"quantity" validate:"required"`
	MovementDate *time.Time      `json:"movement_date"`
	Note         string          `json:"note" validate:"required,max=500"`
}

// UpdateMovementRequest edita una compra o venta existente. La edición
// dispara la reconstrucción FIFO del producto.
type UpdateMovementRequest struct {
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	MovementDate *time.Time       `json:"movement_date"`
	Note         *string          `json:"note" validate:"omitempty,max=500"`
}

// AllocationResponse detalla de qué lote salió cada unidad consumida.
type AllocationResponse struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// MovementResponse es la vista pública de un movimiento del libro.
type MovementResponse struct {
	ID           string               `json:"id"`
	Type         string               `json:"type"`
	ProductID    string               `json:"product_id"`
	LocationID   string               `json:"location_id"`
	Quantity     decimal.Decimal      `json:"quantity"`
	UnitCost     *decimal.Decimal     `json:"unit_cost,omitempty"`
	UnitPrice    *decimal.Decimal     `json:"unit_price,omitempty"`
	TransferID   string               `json:"transfer_id,omitempty"`
	OutID        string               `json:"out_id,omitempty"`
	IsInitial    bool                 `json:"is_initial,omitempty"`
	Note         string               `json:"note,omitempty"`
	MovementDate time.Time            `json:"movement_date"`
	CreatedAt    time.Time            `json:"created_at"`
	CreatedBy    string               `json:"created_by,omitempty"`
	Allocations  []AllocationResponse `json:"allocations,omitempty"`
}

// MovementResultResponse acompaña cada escritura con el stock resultante y
// una advertencia opcional (stock bajo mínimo, faltante cubierto).
type MovementResultResponse struct {
	Movement   MovementResponse `json:"movement"`
	StockAfter decimal.Decimal  `json:"stock_after"`
	Warning    string           `json:"warning,omitempty"`
}

// HistoryQuery son los filtros del historial de movimientos.
type HistoryQuery struct {
	ProductID  string `query:"product_id" validate:"omitempty,uuid4"`
	SKU        string `query:"sku"`
	LocationID string `query:"location_id" validate:"omitempty,uuid4"`
	Type       string `query:"type" validate:"omitempty,oneof=purchase sale adjustment transfer_out transfer_in supplier_return"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `query:"offset" validate:"omitempty,min=0"`
}
