package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TransferUseCase mueve stock entre ubicaciones de forma atómica. Por cada
// tramo de lote consumido en origen genera un par transfer_out/transfer_in
// enlazado, y en destino un lote nuevo que conserva el costo del lote de
// origen (received_at pasa a ser la fecha del traslado, así el FIFO del
// destino refleja cuándo llegó la mercadería ahí).
type TransferUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	movementRepo repository.MovementRepository
	opts         Options
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	opts Options,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		opts:         opts,
	}
}

// Create ejecuta un traslado multilínea: o todas las líneas se trasladan o
// ninguna. Origen vacío usa la ubicación central configurada. Los traslados
// siempre rechazan faltantes: no se puede mover stock que no está.
func (uc *TransferUseCase) Create(ctx context.Context, actorID string, in dto.TransferRequest) (*entity.Transfer, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var from *entity.Location
	var err error
	if in.FromLocationID == "" {
		from, err = uc.locationRepo.GetByCode(ctx, uc.opts.CentralLocationCode)
	} else {
		from, err = uc.locationRepo.GetByID(ctx, in.FromLocationID)
	}
	if err != nil {
		return nil, err
	}
	to, err := uc.locationRepo.GetByID(ctx, in.ToLocationID)
	if err != nil {
		return nil, err
	}
	if from.ID == to.ID {
		return nil, domain.ErrInvalidInput
	}

	products := make([]*entity.Product, len(in.Lines))
	for i, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		p, err := uc.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		products[i] = p
	}

	transfer := &entity.Transfer{
		ID:             uuid.New().String(),
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		MovementDate:   movementTime(in.MovementDate),
		Note:           in.Note,
	}
	now := time.Now()

	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		_ repository.ProductRepository,
	) error {
		transfer.Lines = transfer.Lines[:0]
		for i, reqLine := range in.Lines {
			line, err := applyTransferLine(ctx, movRepo, lotRepo, products[i], from, to,
				reqLine.Quantity, transfer.ID, in.Note, actorID, transfer.MovementDate, now)
			if err != nil {
				return err
			}
			transfer.Lines = append(transfer.Lines, *line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Get reconstruye un traslado desde los movimientos que comparten su ID.
func (uc *TransferUseCase) Get(ctx context.Context, transferID string) (*entity.Transfer, error) {
	movs, err := uc.movementRepo.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if len(movs) == 0 {
		return nil, domain.ErrNotFound
	}
	return uc.assemble(ctx, transferID, movs)
}

// UpdateLine edita una línea de traslado (cantidad, fecha, nota) de forma
// atómica: reversa los efectos sobre los lotes y vuelve a aplicar la línea
// con los valores nuevos, conservando el TransferID. Falla con
// ErrConstraintViolation si el lote de destino ya fue consumido.
func (uc *TransferUseCase) UpdateLine(ctx context.Context, actorID, outMovementID string, in dto.UpdateTransferLineRequest) (*entity.Transfer, error) {
	seed, err := uc.movementRepo.GetByID(ctx, outMovementID)
	if err != nil {
		return nil, err
	}
	if seed.Type != entity.MovementTransferOut || seed.TransferID == "" {
		return nil, domain.ErrNotFound
	}
	product, err := uc.productRepo.GetByID(ctx, seed.ProductID)
	if err != nil {
		return nil, err
	}
	from, err := uc.locationRepo.GetByID(ctx, seed.LocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		_ repository.ProductRepository,
	) error {
		movs, err := movRepo.ListByTransfer(ctx, seed.TransferID)
		if err != nil {
			return err
		}
		outs, ins := splitLine(movs, seed.ProductID)
		if len(outs) == 0 || len(ins) == 0 {
			return domain.ErrInvalidLinkage
		}
		to, err := uc.locationRepo.GetByID(ctx, ins[0].LocationID)
		if err != nil {
			return err
		}

		qty := lineQuantity(outs)
		if in.Quantity != nil {
			if !in.Quantity.IsPositive() {
				return domain.ErrInvalidInput
			}
			qty = *in.Quantity
		}
		when := outs[0].MovementDate
		if in.MovementDate != nil {
			when = *in.MovementDate
		}
		note := outs[0].Note
		if in.Note != nil {
			note = *in.Note
		}

		if err := reverseTransferLine(ctx, movRepo, lotRepo, outs, ins); err != nil {
			return err
		}
		_, err = applyTransferLine(ctx, movRepo, lotRepo, product, from, to,
			qty, seed.TransferID, note, actorID, when, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return uc.Get(ctx, seed.TransferID)
}

// DeleteLine elimina una línea de traslado reversando sus efectos. Falla
// con ErrConstraintViolation si el lote de destino ya fue consumido, total
// o parcialmente.
func (uc *TransferUseCase) DeleteLine(ctx context.Context, outMovementID string) error {
	seed, err := uc.movementRepo.GetByID(ctx, outMovementID)
	if err != nil {
		return err
	}
	if seed.Type != entity.MovementTransferOut || seed.TransferID == "" {
		return domain.ErrNotFound
	}
	return uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		_ repository.ProductRepository,
	) error {
		movs, err := movRepo.ListByTransfer(ctx, seed.TransferID)
		if err != nil {
			return err
		}
		outs, ins := splitLine(movs, seed.ProductID)
		if len(outs) == 0 {
			return domain.ErrNotFound
		}
		return reverseTransferLine(ctx, movRepo, lotRepo, outs, ins)
	})
}

// ── internos ─────────────────────────────────────────────────────────────

// applyTransferLine consume qty en origen y materializa los pares
// out/in con sus lotes de destino. Asume tx activa.
func applyTransferLine(
	ctx context.Context,
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	product *entity.Product,
	from, to *entity.Location,
	qty decimal.Decimal,
	transferID, note, actorID string,
	when time.Time,
	now time.Time,
) (*entity.TransferLine, error) {
	lots, err := lotRepo.ListAvailableForUpdate(ctx, product.ID, from.ID)
	if err != nil {
		return nil, err
	}
	available := inventory.Available(lots)
	if available.LessThan(qty) {
		return nil, &domain.InsufficientStockError{
			LocationCode: from.Code,
			Available:    available,
			Requested:    qty,
		}
	}
	plan, _ := inventory.Allocate(lots, qty)

	byID := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}

	line := &entity.TransferLine{
		ProductID: product.ID,
		SKU:       product.SKU,
		Quantity:  qty,
	}
	for _, c := range plan {
		outMov := &entity.Movement{
			ID:           uuid.New().String(),
			Type:         entity.MovementTransferOut,
			ProductID:    product.ID,
			LocationID:   from.ID,
			Quantity:     c.Quantity.Neg(),
			UnitCost:     c.UnitCost,
			TransferID:   transferID,
			Note:         note,
			MovementDate: when,
			CreatedAt:    now,
			CreatedBy:    actorID,
		}
		if err := movRepo.Create(ctx, outMov); err != nil {
			return nil, err
		}
		if err := lotRepo.UpdateRemaining(ctx, c.LotID, byID[c.LotID].QtyRemaining); err != nil {
			return nil, err
		}
		alloc := &entity.Allocation{
			ID:         uuid.New().String(),
			MovementID: outMov.ID,
			LotID:      c.LotID,
			Quantity:   c.Quantity,
			UnitCost:   c.UnitCost,
		}
		if err := movRepo.CreateAllocation(ctx, alloc); err != nil {
			return nil, err
		}

		inMov := &entity.Movement{
			ID:           uuid.New().String(),
			Type:         entity.MovementTransferIn,
			ProductID:    product.ID,
			LocationID:   to.ID,
			Quantity:     c.Quantity,
			UnitCost:     c.UnitCost,
			TransferID:   transferID,
			OutID:        outMov.ID,
			Note:         note,
			MovementDate: when,
			CreatedAt:    now,
			CreatedBy:    actorID,
		}
		if err := movRepo.Create(ctx, inMov); err != nil {
			return nil, err
		}
		code, err := generateLotCode(ctx, "TR", product.SKU, when, lotRepo.LotCodeExists)
		if err != nil {
			return nil, err
		}
		destLot := &entity.Lot{
			ID:           uuid.New().String(),
			MovementID:   inMov.ID,
			ProductID:    product.ID,
			LocationID:   to.ID,
			LotCode:      code,
			ReceivedAt:   when,
			UnitCost:     c.UnitCost,
			QtyReceived:  c.Quantity,
			QtyRemaining: c.Quantity,
			CreatedAt:    now,
		}
		if err := lotRepo.Create(ctx, destLot); err != nil {
			return nil, err
		}
		line.MovementsOut = append(line.MovementsOut, outMov.ID)
		line.MovementsIn = append(line.MovementsIn, inMov.ID)
	}
	return line, nil
}

// reverseTransferLine deshace una línea: borra los lotes de destino (solo
// si están intactos), borra los pares de movimientos y restaura el
// remanente de los lotes de origen. Asume tx activa.
func reverseTransferLine(
	ctx context.Context,
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	outs, ins []*entity.Movement,
) error {
	// Primero el lado destino: si algún lote ya se consumió, la reversa
	// dejaría el libro descuadrado, así que se rechaza completa.
	for _, inMov := range ins {
		lot, err := lotRepo.GetByMovement(ctx, inMov.ID)
		if err != nil {
			return err
		}
		if lot.QtyRemaining.LessThan(lot.QtyReceived) {
			return domain.ErrConstraintViolation
		}
		if err := lotRepo.Delete(ctx, lot.ID); err != nil {
			return err
		}
		if err := movRepo.Delete(ctx, inMov.ID); err != nil {
			return err
		}
	}
	// Luego el origen: devolver lo consumido a cada lote.
	for _, outMov := range outs {
		allocs, err := movRepo.AllocationsByMovement(ctx, outMov.ID)
		if err != nil {
			return err
		}
		for _, a := range allocs {
			lot, err := lotRepo.GetByID(ctx, a.LotID)
			if err != nil {
				return err
			}
			if err := lotRepo.UpdateRemaining(ctx, lot.ID, lot.QtyRemaining.Add(a.Quantity)); err != nil {
				return err
			}
		}
		if err := movRepo.DeleteAllocationsByMovement(ctx, outMov.ID); err != nil {
			return err
		}
		if err := movRepo.Delete(ctx, outMov.ID); err != nil {
			return err
		}
	}
	return nil
}

// splitLine separa los movimientos de un producto dentro de un traslado en
// salidas y entradas, descartando los de otros productos.
func splitLine(movs []*entity.Movement, productID string) (outs, ins []*entity.Movement) {
	for _, m := range movs {
		if m.ProductID != productID {
			continue
		}
		switch m.Type {
		case entity.MovementTransferOut:
			outs = append(outs, m)
		case entity.MovementTransferIn:
			ins = append(ins, m)
		}
	}
	return outs, ins
}

func lineQuantity(outs []*entity.Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range outs {
		total = total.Add(m.Quantity.Abs())
	}
	return total
}

// assemble arma la vista de un traslado agrupando sus movimientos por
// producto y verificando el enlace out/in de cada par.
func (uc *TransferUseCase) assemble(ctx context.Context, transferID string, movs []*entity.Movement) (*entity.Transfer, error) {
	outIDs := make(map[string]bool)
	for _, m := range movs {
		if m.Type == entity.MovementTransferOut {
			outIDs[m.ID] = true
		}
	}

	transfer := &entity.Transfer{ID: transferID}
	byProduct := make(map[string]*entity.TransferLine)
	var order []string
	for _, m := range movs {
		line, ok := byProduct[m.ProductID]
		if !ok {
			product, err := uc.productRepo.GetByID(ctx, m.ProductID)
			if err != nil {
				return nil, err
			}
			line = &entity.TransferLine{ProductID: m.ProductID, SKU: product.SKU}
			byProduct[m.ProductID] = line
			order = append(order, m.ProductID)
		}
		switch m.Type {
		case entity.MovementTransferOut:
			line.MovementsOut = append(line.MovementsOut, m.ID)
			line.Quantity = line.Quantity.Add(m.Quantity.Abs())
			transfer.FromLocationID = m.LocationID
			transfer.MovementDate = m.MovementDate
			transfer.Note = m.Note
		case entity.MovementTransferIn:
			if m.OutID == "" || !outIDs[m.OutID] {
				return nil, domain.ErrInvalidLinkage
			}
			line.MovementsIn = append(line.MovementsIn, m.ID)
			transfer.ToLocationID = m.LocationID
		default:
			return nil, domain.ErrInvalidLinkage
		}
	}
	for _, pid := range order {
		transfer.Lines = append(transfer.Lines, *byProduct[pid])
	}
	return transfer, nil
}
