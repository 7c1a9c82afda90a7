package repository

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia del catálogo.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetBySKU busca por SKU normalizado (insensible a mayúsculas).
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// Delete falla con ErrConstraintViolation si el producto tiene lotes o
	// movimientos.
	Delete(ctx context.Context, id string) error
	// List filtra por texto libre sobre SKU y nombre (plegado de acentos en
	// el llamador) con paginación.
	List(ctx context.Context, query string, limit, offset int) ([]*entity.Product, error)
}
