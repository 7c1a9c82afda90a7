package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo, identificado por SKU único
// (insensible a mayúsculas). El catálogo es dueño del precio de venta por
// defecto; el costo mostrado en listados sale de los lotes, no de aquí.
type Product struct {
	ID          string
	SKU         string // se persiste normalizado en mayúsculas
	Name        string
	Category    string
	UnitMeasure string
	DefaultCost  decimal.Decimal // costo de compra por defecto (fallback en compras)
	DefaultPrice decimal.Decimal // precio de venta por defecto (fallback en ventas)
	MinStock     decimal.Decimal // umbral de reposición; 0 = sin alerta
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeSKU lleva un SKU a su forma canónica (mayúsculas, sin espacios).
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
