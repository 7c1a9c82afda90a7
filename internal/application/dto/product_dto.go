package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest da de alta un producto del catálogo.
type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"required,max=64"`
	Name         string           `json:"name" validate:"required,max=200"`
	Category     string           `json:"category" validate:"max=100"`
	UnitMeasure  string           `json:"unit_measure" validate:"max=20"`
	DefaultCost  *decimal.Decimal `json:"default_cost"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	MinStock     *decimal.Decimal `json:"min_stock"`
}

// UpdateProductRequest modifica campos del catálogo; el SKU no cambia.
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	UnitMeasure  *string          `json:"unit_measure" validate:"omitempty,max=20"`
	DefaultCost  *decimal.Decimal `json:"default_cost"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	MinStock     *decimal.Decimal `json:"min_stock"`
}

// ProductResponse es la vista pública de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	UnitMeasure  string          `json:"unit_measure"`
	DefaultCost  decimal.Decimal `json:"default_cost"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
