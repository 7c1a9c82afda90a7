package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// lotIdentity conserva el código y la marca de inicial de un lote a través
// de la reconstrucción, para que editar un movimiento no cambie el código
// con el que el lote ya se conoce.
type lotIdentity struct {
	code      string
	isInitial bool
}

// rebuildProduct reconstruye los lotes y asignaciones de un producto
// reproduciendo su historial completo en orden de fecha. Se usa tras editar
// o borrar una compra o venta. dropMovementID, si no está vacío, es un
// movimiento que se elimina del libro antes de reproducir (borrado).
//
// La reproducción es estricta: si el historial resultante consume más de lo
// que entra en alguna ubicación, la operación falla completa con
// InsufficientStockError y la tx hace rollback. Debe correr dentro de una
// transacción con los repos atados a ella.
func rebuildProduct(
	ctx context.Context,
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	product *entity.Product,
	dropMovementID string,
	locCodes map[string]string,
) error {
	// Fotografía de identidad de los lotes existentes, por movimiento origen.
	existing, err := lotRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	identities := make(map[string]lotIdentity, len(existing))
	for _, l := range existing {
		if l.MovementID != "" {
			identities[l.MovementID] = lotIdentity{code: l.LotCode, isInitial: l.IsInitial}
		}
	}

	// Purga: asignaciones y lotes del producto, luego el movimiento borrado.
	if err := movRepo.DeleteAllocationsByProduct(ctx, product.ID); err != nil {
		return err
	}
	if err := lotRepo.DeleteByProduct(ctx, product.ID); err != nil {
		return err
	}
	if dropMovementID != "" {
		if err := movRepo.Delete(ctx, dropMovementID); err != nil {
			return err
		}
	}

	movs, err := movRepo.ListByProductAsc(ctx, product.ID)
	if err != nil {
		return err
	}

	// Reproducción en memoria, lotes agrupados por ubicación.
	perLoc := make(map[string][]*entity.Lot)
	var created []*entity.Lot
	for _, m := range movs {
		switch {
		case m.Type == entity.MovementPurchase,
			m.Type == entity.MovementTransferIn,
			m.Type == entity.MovementAdjustment && m.Quantity.IsPositive():
			ident, known := identities[m.ID]
			code := ident.code
			if !known {
				code, err = generateLotCode(ctx, lotCodePrefix(m.Type), product.SKU, m.MovementDate, lotRepo.LotCodeExists)
				if err != nil {
					return err
				}
			}
			lot := &entity.Lot{
				ID:           uuid.New().String(),
				MovementID:   m.ID,
				ProductID:    product.ID,
				LocationID:   m.LocationID,
				LotCode:      code,
				ReceivedAt:   m.MovementDate,
				UnitCost:     m.UnitCost,
				QtyReceived:  m.Quantity,
				QtyRemaining: m.Quantity,
				IsInitial:    m.IsInitial || ident.isInitial,
				CreatedAt:    m.CreatedAt,
			}
			if err := lotRepo.Create(ctx, lot); err != nil {
				return err
			}
			perLoc[m.LocationID] = append(perLoc[m.LocationID], lot)
			created = append(created, lot)

		default:
			qty := m.Quantity.Abs()
			lots := perLoc[m.LocationID]
			inventory.SortLots(lots)
			plan, shortfall := inventory.Allocate(lots, qty)
			if shortfall.IsPositive() {
				locCode := locCodes[m.LocationID]
				if locCode == "" {
					locCode = m.LocationID
				}
				return &domain.InsufficientStockError{
					LocationCode: locCode,
					Available:    qty.Sub(shortfall),
					Requested:    qty,
				}
			}
			for _, c := range plan {
				alloc := &entity.Allocation{
					ID:         uuid.New().String(),
					MovementID: m.ID,
					LotID:      c.LotID,
					Quantity:   c.Quantity,
					UnitCost:   c.UnitCost,
				}
				if err := movRepo.CreateAllocation(ctx, alloc); err != nil {
					return err
				}
			}
		}
	}

	// Persistir los remanentes finales de los lotes tocados.
	for _, lot := range created {
		if !lot.QtyRemaining.Equal(lot.QtyReceived) {
			if err := lotRepo.UpdateRemaining(ctx, lot.ID, lot.QtyRemaining); err != nil {
				return err
			}
		}
	}
	return nil
}

// lotCodePrefix es el prefijo de código con el que cada tipo de movimiento
// crea sus lotes; se usa al regenerar un código sin identidad conservada.
func lotCodePrefix(t entity.MovementType) string {
	switch t {
	case entity.MovementAdjustment:
		return "ADJ"
	case entity.MovementTransferIn:
		return "TR"
	}
	return ""
}
