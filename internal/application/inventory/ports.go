package inventory

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el decremento de lotes y el
// append al libro queden en el mismo commit, y reintenta una vez ante
// conflicto de serialización.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		productRepo repository.ProductRepository,
	) error) error
}
