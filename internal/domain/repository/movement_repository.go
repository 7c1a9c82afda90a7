package repository

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// HistoryFilter acota la consulta de historial de movimientos. Todos los
// campos son opcionales; el orden es siempre movement_date DESC, id DESC.
type HistoryFilter struct {
	ProductID  string
	LocationID string
	Type       entity.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// MovementRepository define el puerto del libro de movimientos (append-only)
// y de sus registros de consumo (allocations).
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// Update y Delete existen solo para las operaciones administrativas de
	// edición de compras/ventas que reconstruyen el FIFO del producto.
	Update(ctx context.Context, m *entity.Movement) error
	Delete(ctx context.Context, id string) error
	// ListByTransfer devuelve los movimientos que comparten un TransferID,
	// en orden de creación.
	ListByTransfer(ctx context.Context, transferID string) ([]*entity.Movement, error)
	// ListByProductAsc devuelve todo el historial de un producto en orden
	// movement_date ASC, created_at ASC (orden de replay del FIFO).
	ListByProductAsc(ctx context.Context, productID string) ([]*entity.Movement, error)
	History(ctx context.Context, f HistoryFilter) ([]*entity.Movement, error)

	CreateAllocation(ctx context.Context, a *entity.Allocation) error
	AllocationsByMovement(ctx context.Context, movementID string) ([]*entity.Allocation, error)
	DeleteAllocationsByMovement(ctx context.Context, movementID string) error
	DeleteAllocationsByProduct(ctx context.Context, productID string) error
}
