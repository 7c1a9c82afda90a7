package inventory

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/textutil"
)

// StockUseCase sirve la proyección de solo lectura del stock: disponible
// por producto y ubicación, costo histórico mínimo y precio de venta por
// defecto. Nunca escribe ni bloquea a los escritores.
type StockUseCase struct {
	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *StockUseCase {
	return &StockUseCase{stockRepo: stockRepo, productRepo: productRepo, locationRepo: locationRepo}
}

// List devuelve la proyección filtrada por texto libre (SKU o nombre, sin
// acentos ni mayúsculas) y ubicación opcional.
func (uc *StockUseCase) List(ctx context.Context, q dto.StockQuery) ([]dto.StockItemResponse, error) {
	if q.LocationID != "" {
		if _, err := uc.locationRepo.GetByID(ctx, q.LocationID); err != nil {
			return nil, err
		}
	}
	rows, err := uc.stockRepo.StockList(ctx, textutil.Fold(q.Query), q.LocationID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockItemResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, toStockItem(r))
	}
	return items, nil
}

// GetBySKU devuelve la fila de proyección de un solo producto.
func (uc *StockUseCase) GetBySKU(ctx context.Context, sku, locationID string) (*dto.StockItemResponse, error) {
	product, err := uc.productRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	rows, err := uc.stockRepo.StockList(ctx, textutil.Fold(product.SKU), locationID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.ProductID == product.ID {
			item := toStockItem(r)
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func toStockItem(r *repository.StockRow) dto.StockItemResponse {
	return dto.StockItemResponse{
		ProductID:    r.ProductID,
		SKU:          r.SKU,
		Name:         r.Name,
		UnitMeasure:  r.UnitMeasure,
		Quantity:     r.Quantity,
		MinStock:     r.MinStock,
		MinCost:      r.MinCost,
		DefaultPrice: r.DefaultPrice,
		NeedsRestock: r.MinStock.IsPositive() && r.Quantity.LessThan(r.MinStock),
	}
}
