package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia de lotes de costo.
// Almacén puro de datos: mantiene la clave de ordenamiento de asignación y
// el invariante remaining >= 0 lo hace cumplir el asignador, no el repo.
type LotRepository interface {
	// Create persiste un lote nuevo y rellena ID y Seq.
	Create(ctx context.Context, lot *entity.Lot) error
	// ListAvailableForUpdate devuelve los lotes con remanente > 0 de un
	// producto en una ubicación, bloqueados (SELECT FOR UPDATE) y ya
	// ordenados por prioridad de consumo: is_initial primero, luego
	// received_at ascendente, luego seq.
	ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Lot, error)
	// UpdateRemaining fija el remanente de un lote tras una asignación.
	UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByMovement(ctx context.Context, movementID string) (*entity.Lot, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)
	// SumRemaining es la cantidad disponible de un producto en una ubicación
	// (ubicación vacía = todas).
	SumRemaining(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
	// MinHistoricalCost devuelve el costo unitario mínimo jamás pagado por el
	// producto, sobre todos los lotes (incluidos los agotados) de todas las
	// ubicaciones, ignorando lotes de costo cero.
	MinHistoricalCost(ctx context.Context, productID string) (decimal.Decimal, error)
	LotCodeExists(ctx context.Context, code string) (bool, error)
	// Delete elimina un lote (solo reconstrucción FIFO y reversas de
	// traslado; un lote con historial vivo nunca se borra por fuera de ahí).
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID string) error
}
