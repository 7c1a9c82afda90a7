package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLine es una línea lógica de un traslado: un producto y la cantidad
// movida. Como el costo debe sobrevivir al traslado lote a lote, una línea
// puede materializarse en varios pares transfer_out/transfer_in (uno por
// tramo de lote consumido).
type TransferLine struct {
	ProductID    string
	SKU          string
	Quantity     decimal.Decimal
	MovementsOut []string // IDs de los transfer_out creados
	MovementsIn  []string // IDs de los transfer_in pareja
}

// Transfer agrupa las líneas de un traslado entre exactamente dos
// ubicaciones bajo un identificador compartido. No se persiste como fila
// propia: se reconstruye desde los movimientos que comparten TransferID.
type Transfer struct {
	ID             string // compartido por todos los movimientos del traslado
	FromLocationID string
	ToLocationID   string
	Lines          []TransferLine
	MovementDate   time.Time
	Note           string
}
