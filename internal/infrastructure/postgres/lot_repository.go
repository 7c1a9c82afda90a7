package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, seq, movement_id, product_id, location_id, lot_code, received_at,
	unit_cost, qty_received, qty_remaining, is_initial, created_at`

// LotRepo implementación del almacén de lotes sobre PostgreSQL (usable con
// pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Create persiste un lote y rellena su Seq (asignado por la BD).
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_lots (id, movement_id, product_id, location_id, lot_code,
			received_at, unit_cost, qty_received, qty_remaining, is_initial, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		lot.ID, nullable(lot.MovementID), lot.ProductID, lot.LocationID, lot.LotCode,
		lot.ReceivedAt, lot.UnitCost, lot.QtyReceived, lot.QtyRemaining, lot.IsInitial, lot.CreatedAt,
	).Scan(&lot.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// ListAvailableForUpdate bloquea y devuelve los lotes con remanente de un
// producto en una ubicación, ya ordenados por prioridad de consumo. El
// FOR UPDATE serializa a los consumidores concurrentes del mismo par
// (producto, ubicación).
func (r *LotRepo) ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + `
		FROM inventory_lots
		WHERE product_id = $1 AND location_id = $2 AND qty_remaining > 0
		ORDER BY is_initial DESC, received_at ASC, seq ASC
		FOR UPDATE`
	return r.list(ctx, query, productID, locationID)
}

// UpdateRemaining fija el remanente de un lote.
func (r *LotRepo) UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE inventory_lots SET qty_remaining = $2 WHERE id = $1`, lotID, remaining)
	if err != nil {
		return fmt.Errorf("update lot remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE id = $1`
	lot, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// GetByMovement obtiene el lote originado por un movimiento.
func (r *LotRepo) GetByMovement(ctx context.Context, movementID string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE movement_id = $1`
	lot, err := scanLot(r.q.QueryRow(ctx, query, movementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lot by movement: %w", err)
	}
	return lot, nil
}

// ListByProduct lista todos los lotes de un producto, agotados incluidos.
func (r *LotRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + `
		FROM inventory_lots WHERE product_id = $1 ORDER BY seq ASC`
	return r.list(ctx, query, productID)
}

// SumRemaining suma el remanente de un producto (ubicación vacía = todas).
func (r *LotRepo) SumRemaining(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(qty_remaining), 0) FROM inventory_lots WHERE product_id = $1`
	args := []any{productID}
	if locationID != "" {
		query += ` AND location_id = $2`
		args = append(args, locationID)
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum remaining: %w", err)
	}
	return total, nil
}

// MinHistoricalCost devuelve el costo unitario mínimo jamás pagado por el
// producto sobre todos sus lotes, agotados incluidos. Los lotes a costo
// cero (respaldo de faltantes) no cuentan.
func (r *LotRepo) MinHistoricalCost(ctx context.Context, productID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(MIN(unit_cost), 0)
		FROM inventory_lots
		WHERE product_id = $1 AND unit_cost > 0`
	var min decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID).Scan(&min); err != nil {
		return decimal.Zero, fmt.Errorf("min historical cost: %w", err)
	}
	return min, nil
}

// LotCodeExists verifica si un código de lote ya está en uso.
func (r *LotRepo) LotCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_lots WHERE lot_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lot code exists: %w", err)
	}
	return exists, nil
}

// Delete elimina un lote (reversa de traslado y reconstrucción FIFO).
func (r *LotRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_lots WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("delete lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByProduct elimina todos los lotes de un producto (reconstrucción
// FIFO; las asignaciones deben borrarse antes).
func (r *LotRepo) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM inventory_lots WHERE product_id = $1`, productID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("delete lots by product: %w", err)
	}
	return nil
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, lot)
	}
	return list, rows.Err()
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	var movementID *string
	err := row.Scan(
		&l.ID, &l.Seq, &movementID, &l.ProductID, &l.LocationID, &l.LotCode, &l.ReceivedAt,
		&l.UnitCost, &l.QtyReceived, &l.QtyRemaining, &l.IsInitial, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if movementID != nil {
		l.MovementID = *movementID
	}
	return &l, nil
}
