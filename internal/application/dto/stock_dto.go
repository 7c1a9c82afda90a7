package dto

import "github.com/shopspring/decimal"

// StockItemResponse es una fila de la proyección de stock.
type StockItemResponse struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	UnitMeasure  string          `json:"unit_measure"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinStock     decimal.Decimal `json:"min_stock"`
	MinCost      decimal.Decimal `json:"min_cost"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	NeedsRestock bool            `json:"needs_restock"`
}

// StockQuery filtra la proyección de stock.
type StockQuery struct {
	Query      string `query:"q"`
	LocationID string `query:"location_id" validate:"omitempty,uuid4"`
}
