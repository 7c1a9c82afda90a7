package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/textutil"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, unit_measure, default_cost, default_price,
	min_stock, created_at, updated_at`

// ProductRepo implementación del catálogo sobre PostgreSQL (usable con pool
// o tx). Mantiene search_text, la versión plegada (sin acentos, minúsculas)
// de SKU y nombre, para búsqueda insensible a acentos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un producto nuevo. SKU duplicado falla con ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `, search_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Category, p.UnitMeasure, p.DefaultCost, p.DefaultPrice,
		p.MinStock, p.CreatedAt, p.UpdatedAt, searchText(p),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetBySKU busca por SKU normalizado.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, entity.NormalizeSKU(sku)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// Update reescribe los campos editables del catálogo (el SKU no cambia).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, unit_measure = $4, default_cost = $5,
			default_price = $6, min_stock = $7, updated_at = $8, search_text = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.UnitMeasure, p.DefaultCost,
		p.DefaultPrice, p.MinStock, p.UpdatedAt, searchText(p),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un producto. Si tiene lotes o movimientos, la clave
// foránea lo rechaza y se devuelve ErrConstraintViolation.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List busca por texto plegado sobre SKU y nombre, con paginación.
func (r *ProductRepo) List(ctx context.Context, query string, limit, offset int) ([]*entity.Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products`
	var args []any
	pos := 1
	if query != "" {
		sql += fmt.Sprintf(" WHERE search_text LIKE '%%' || $%d || '%%'", pos)
		args = append(args, query)
		pos++
	}
	sql += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.UnitMeasure, &p.DefaultCost,
		&p.DefaultPrice, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func searchText(p *entity.Product) string {
	return textutil.Fold(p.SKU + " " + p.Name)
}
