package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockRow es una fila de la proyección de stock: cantidad disponible por
// producto (y ubicación si se filtró), con el costo histórico mínimo y el
// precio de venta por defecto del catálogo.
type StockRow struct {
	ProductID    string
	SKU          string
	Name         string
	UnitMeasure  string
	Quantity     decimal.Decimal
	MinStock     decimal.Decimal
	MinCost      decimal.Decimal // costo unitario mínimo jamás pagado (lotes)
	DefaultPrice decimal.Decimal // dato de catálogo, no derivado del libro
}

// StockRepository es el puerto de solo lectura de la proyección de stock.
// Nunca escribe; se deriva de lotes + catálogo y tolera vistas ligeramente
// desfasadas (no bloquea a los escritores).
type StockRepository interface {
	// OnHand devuelve la cantidad disponible de un producto en una ubicación
	// (ubicación vacía = todas): suma de remanentes de sus lotes.
	OnHand(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
	// StockList lista la proyección filtrando por texto libre (SKU/nombre) y
	// ubicación opcional, ordenada por nombre.
	StockList(ctx context.Context, query, locationID string) ([]*StockRow, error)
}
