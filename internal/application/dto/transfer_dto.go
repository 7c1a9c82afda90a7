package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLineRequest es una línea de traslado: producto y cantidad.
type TransferLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

// TransferRequest mueve stock entre ubicaciones de forma atómica: o todas
// las líneas se trasladan o ninguna. FromLocationID vacío usa la ubicación
// central configurada.
type TransferRequest struct {
	FromLocationID string                `json:"from_location_id" validate:"omitempty,uuid4"`
	ToLocationID   string                `json:"to_location_id" validate:"required,uuid4"`
	Lines          []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
	MovementDate   *time.Time            `json:"movement_date"`
	Note           string                `json:"note" validate:"max=500"`
}

// UpdateTransferLineRequest edita una línea de traslado existente
// (identificada por uno de sus movimientos transfer_out): cantidad, fecha o
// nota. La línea se reversa y se vuelve a aplicar de forma atómica.
type UpdateTransferLineRequest struct {
	Quantity     *decimal.Decimal `json:"quantity"`
	MovementDate *time.Time       `json:"movement_date"`
	Note         *string          `json:"note" validate:"omitempty,max=500"`
}

// TransferLineResponse resume una línea con sus movimientos generados.
type TransferLineResponse struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Quantity     decimal.Decimal `json:"quantity"`
	MovementsOut []string        `json:"movements_out"`
	MovementsIn  []string        `json:"movements_in"`
}

// TransferResponse es la vista de un traslado reconstruida desde el libro.
type TransferResponse struct {
	ID             string                 `json:"id"`
	FromLocationID string                 `json:"from_location_id"`
	ToLocationID   string                 `json:"to_location_id"`
	Lines          []TransferLineResponse `json:"lines"`
	MovementDate   time.Time              `json:"movement_date"`
	Note           string                 `json:"note,omitempty"`
}
