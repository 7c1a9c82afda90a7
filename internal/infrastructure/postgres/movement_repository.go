package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, type, product_id, location_id, quantity, unit_cost, unit_price,
	transfer_id, out_id, is_initial, note, movement_date, created_at, created_by`

// MovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento del libro. Un transfer_in sin pareja
// transfer_out válida (mismo producto y traslado, cantidades espejo) se
// rechaza en el alta con ErrInvalidLinkage.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Type == entity.MovementTransferIn {
		if m.OutID == "" {
			return domain.ErrInvalidLinkage
		}
		out, err := r.GetByID(ctx, m.OutID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidLinkage
			}
			return err
		}
		if err := entity.ValidateTransferLink(m, out); err != nil {
			return err
		}
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Type, m.ProductID, m.LocationID, m.Quantity, m.UnitCost, m.UnitPrice,
		nullable(m.TransferID), nullable(m.OutID), m.IsInitial, m.Note,
		m.MovementDate, m.CreatedAt, nullable(m.CreatedBy),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Update reescribe un movimiento (solo edición administrativa de compras y
// ventas; el resto del libro es append-only).
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	query := `
		UPDATE inventory_movements
		SET quantity = $2, unit_cost = $3, unit_price = $4, note = $5, movement_date = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, m.ID, m.Quantity, m.UnitCost, m.UnitPrice, m.Note, m.MovementDate)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un movimiento del libro.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_movements WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByTransfer lista los movimientos de un traslado en orden de creación.
func (r *MovementRepo) ListByTransfer(ctx context.Context, transferID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements WHERE transfer_id = $1
		ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, transferID)
}

// ListByProductAsc devuelve el historial completo de un producto en orden
// de reproducción FIFO.
func (r *MovementRepo) ListByProductAsc(ctx context.Context, productID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements WHERE product_id = $1
		ORDER BY movement_date ASC, created_at ASC, id ASC`
	return r.list(ctx, query, productID)
}

// History consulta el historial con filtros opcionales, siempre en orden
// movement_date DESC, id DESC.
func (r *MovementRepo) History(ctx context.Context, f repository.HistoryFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE 1=1`
	var args []any
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.LocationID != "" {
		query += fmt.Sprintf(" AND location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND movement_date >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND movement_date <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY movement_date DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	return r.list(ctx, query, args...)
}

// CreateAllocation persiste un registro de consumo movimiento→lote.
func (r *MovementRepo) CreateAllocation(ctx context.Context, a *entity.Allocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movement_allocations (id, movement_id, lot_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, a.ID, a.MovementID, a.LotID, a.Quantity, a.UnitCost)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// AllocationsByMovement lista el plan de consumo de un movimiento.
func (r *MovementRepo) AllocationsByMovement(ctx context.Context, movementID string) ([]*entity.Allocation, error) {
	query := `
		SELECT id, movement_id, lot_id, quantity, unit_cost
		FROM movement_allocations WHERE movement_id = $1
		ORDER BY id ASC`
	rows, err := r.q.Query(ctx, query, movementID)
	if err != nil {
		return nil, fmt.Errorf("allocations by movement: %w", err)
	}
	defer rows.Close()
	var list []*entity.Allocation
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.MovementID, &a.LotID, &a.Quantity, &a.UnitCost); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// DeleteAllocationsByMovement borra los registros de consumo de un
// movimiento (reversa de traslado).
func (r *MovementRepo) DeleteAllocationsByMovement(ctx context.Context, movementID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM movement_allocations WHERE movement_id = $1`, movementID)
	if err != nil {
		return fmt.Errorf("delete allocations by movement: %w", err)
	}
	return nil
}

// DeleteAllocationsByProduct borra todos los registros de consumo de un
// producto (reconstrucción FIFO).
func (r *MovementRepo) DeleteAllocationsByProduct(ctx context.Context, productID string) error {
	query := `
		DELETE FROM movement_allocations a
		USING inventory_movements m
		WHERE a.movement_id = m.id AND m.product_id = $1`
	_, err := r.q.Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("delete allocations by product: %w", err)
	}
	return nil
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var transferID, outID, createdBy *string
	err := row.Scan(
		&m.ID, &m.Type, &m.ProductID, &m.LocationID, &m.Quantity, &m.UnitCost, &m.UnitPrice,
		&transferID, &outID, &m.IsInitial, &m.Note, &m.MovementDate, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	if transferID != nil {
		m.TransferID = *transferID
	}
	if outID != nil {
		m.OutID = *outID
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

// nullable convierte cadena vacía en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
