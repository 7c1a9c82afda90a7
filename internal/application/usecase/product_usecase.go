package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/textutil"
)

// ProductUseCase casos de uso CRUD del catálogo. Stock y costo real se
// manejan vía movimientos; acá solo viven los valores por defecto.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create da de alta un producto. El SKU se normaliza y debe ser único.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := entity.NormalizeSKU(in.SKU)
	if sku == "" {
		return nil, domain.ErrInvalidInput
	}
	if existing, err := uc.repo.GetBySKU(ctx, sku); err == nil && existing != nil {
		return nil, domain.ErrDuplicate
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "unidad"
	}
	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          sku,
		Name:         in.Name,
		Category:     in.Category,
		UnitMeasure:  in.UnitMeasure,
		DefaultCost:  valueOrZero(in.DefaultCost),
		DefaultPrice: valueOrZero(in.DefaultPrice),
		MinStock:     valueOrZero(in.MinStock),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if product.DefaultCost.IsNegative() || product.DefaultPrice.IsNegative() || product.MinStock.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetBySKU obtiene un producto por su SKU normalizado.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update modifica campos del catálogo. El SKU no cambia: es la identidad
// con la que el producto aparece en lotes y movimientos.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.UnitMeasure != nil {
		product.UnitMeasure = *in.UnitMeasure
	}
	if in.DefaultCost != nil {
		if in.DefaultCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.DefaultCost = *in.DefaultCost
	}
	if in.DefaultPrice != nil {
		if in.DefaultPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.DefaultPrice = *in.DefaultPrice
	}
	if in.MinStock != nil {
		if in.MinStock.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.MinStock = *in.MinStock
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Delete elimina un producto sin historial. Con lotes o movimientos falla
// con ErrConstraintViolation (el libro es append-only).
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// List busca productos por texto libre (SKU o nombre, insensible a acentos)
// con paginación.
func (uc *ProductUseCase) List(ctx context.Context, query string, limit, offset int) ([]dto.ProductResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	products, err := uc.repo.List(ctx, textutil.Fold(query), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		UnitMeasure:  p.UnitMeasure,
		DefaultCost:  p.DefaultCost,
		DefaultPrice: p.DefaultPrice,
		MinStock:     p.MinStock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
