package entity

import "time"

// Location es un punto de stock (bodega CENTRAL o un punto de venta).
// Datos de referencia inmutables: cada lote y cada movimiento pertenecen a
// exactamente una ubicación.
type Location struct {
	ID        string
	Code      string // único, p. ej. CENTRAL, POS1
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
