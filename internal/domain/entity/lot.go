package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es un lote de costo: una partida de producto recibida en una ubicación
// a un costo unitario concreto. Invariante: 0 <= QtyRemaining <= QtyReceived.
// Un lote con historial nunca se borra; al agotarse queda inactivo pero se
// conserva para consultas de costo histórico.
type Lot struct {
	ID           string
	Seq          int64 // asignado por la BD; desempate final de orden de inserción
	MovementID   string // movimiento que originó el lote
	ProductID    string
	LocationID   string
	LotCode      string // código legible, p. ej. SKU-2601151030
	ReceivedAt   time.Time
	UnitCost     decimal.Decimal
	QtyReceived  decimal.Decimal
	QtyRemaining decimal.Decimal
	IsInitial    bool // inventario inicial: se consume antes que cualquier lote normal
	CreatedAt    time.Time
}

// Exhausted reporta si al lote no le queda cantidad disponible.
func (l *Lot) Exhausted() bool {
	return !l.QtyRemaining.IsPositive()
}
