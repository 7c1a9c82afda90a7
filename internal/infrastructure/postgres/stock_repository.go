package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo sirve la proyección de stock sobre PostgreSQL. Solo lectura:
// se deriva de lotes + catálogo con consultas simples del pool, sin
// bloquear a los escritores.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de la proyección.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// OnHand suma el remanente de un producto (ubicación vacía = todas).
func (r *StockRepo) OnHand(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(qty_remaining), 0) FROM inventory_lots WHERE product_id = $1`
	args := []any{productID}
	if locationID != "" {
		query += ` AND location_id = $2`
		args = append(args, locationID)
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("on hand: %w", err)
	}
	return total, nil
}

// StockList arma la proyección completa: disponible por producto, costo
// histórico mínimo (lotes a costo cero excluidos) y precio por defecto del
// catálogo. query viene ya plegada por el caso de uso.
func (r *StockRepo) StockList(ctx context.Context, query, locationID string) ([]*repository.StockRow, error) {
	sql := `
		SELECT p.id, p.sku, p.name, p.unit_measure, p.min_stock, p.default_price,
			COALESCE(SUM(l.qty_remaining), 0) AS quantity,
			COALESCE((
				SELECT MIN(h.unit_cost) FROM inventory_lots h
				WHERE h.product_id = p.id AND h.unit_cost > 0
			), 0) AS min_cost
		FROM products p
		LEFT JOIN inventory_lots l ON l.product_id = p.id`
	var args []any
	pos := 1
	if locationID != "" {
		sql += fmt.Sprintf(" AND l.location_id = $%d", pos)
		args = append(args, locationID)
		pos++
	}
	if query != "" {
		sql += fmt.Sprintf(" WHERE p.search_text LIKE '%%' || $%d || '%%'", pos)
		args = append(args, query)
	}
	sql += `
		GROUP BY p.id, p.sku, p.name, p.unit_measure, p.min_stock, p.default_price
		ORDER BY p.name ASC`

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("stock list: %w", err)
	}
	defer rows.Close()
	var list []*repository.StockRow
	for rows.Next() {
		var row repository.StockRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.UnitMeasure,
			&row.MinStock, &row.DefaultPrice, &row.Quantity, &row.MinCost); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		list = append(list, &row)
	}
	return list, rows.Err()
}
