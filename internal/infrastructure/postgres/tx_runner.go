package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Ante una
// falla de serialización o deadlock reintenta la transacción completa una
// vez; si vuelve a fallar, la expone como ErrConcurrentModification.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
) error) error {
	err := r.runOnce(ctx, fn)
	if err != nil && isSerializationFailure(err) {
		err = r.runOnce(ctx, fn)
		if err != nil && isSerializationFailure(err) {
			return domain.ErrConcurrentModification
		}
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movRepo := NewMovementRepository(tx)
	lotRepo := NewLotRepository(tx)
	productRepo := NewProductRepository(tx)

	if err := fn(movRepo, lotRepo, productRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
