package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// Políticas ante faltante de stock en una venta.
const (
	ShortfallReject = "reject" // rechazar la venta completa
	ShortfallAllow  = "allow"  // cubrir el faltante de una venta con un lote de respaldo a costo cero
)

// Options parametriza el motor de inventario desde la configuración.
type Options struct {
	CentralLocationCode string // ubicación por defecto cuando el request no trae una
	ShortfallPolicy     string // reject | allow
	HistoryLimit        int    // tope de página del historial
}

// MovementResult acompaña cada escritura del libro con el stock resultante
// en la ubicación afectada y una advertencia opcional (bajo mínimo, faltante
// cubierto).
type MovementResult struct {
	Movement    *entity.Movement
	Allocations []*entity.Allocation
	StockAfter  decimal.Decimal
	Warning     string
}

// MovementUseCase registra movimientos de inventario de forma transaccional:
// crea lotes en entradas, consume FIFO en salidas, y mantiene el invariante
// de conciliación suma(movimientos) == suma(remanentes) por producto y
// ubicación. Todo el consumo corre con bloqueo de fila (SELECT FOR UPDATE).
type MovementUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	movementRepo repository.MovementRepository
	lotRepo      repository.LotRepository
	opts         Options
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	opts Options,
) *MovementUseCase {
	if opts.ShortfallPolicy == "" {
		opts.ShortfallPolicy = ShortfallReject
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	return &MovementUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		lotRepo:      lotRepo,
		opts:         opts,
	}
}

// Purchase registra una compra: movimiento de entrada más su lote de costo,
// en la misma transacción.
func (uc *MovementUseCase) Purchase(ctx context.Context, actorID string, in dto.PurchaseRequest) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	loc, err := uc.resolveLocation(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	cost := product.DefaultCost
	if in.UnitCost != nil {
		cost = *in.UnitCost
	}
	if cost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	when := movementTime(in.MovementDate)

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		_ repository.ProductRepository,
	) error {
		mov := &entity.Movement{
			ID:           uuid.New().String(),
			Type:         entity.MovementPurchase,
			ProductID:    product.ID,
			LocationID:   loc.ID,
			Quantity:     in.Quantity,
			UnitCost:     cost,
			IsInitial:    in.IsInitial,
			Note:         in.Note,
			MovementDate: when,
			CreatedAt:    time.Now(),
			CreatedBy:    actorID,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		code, err := generateLotCode(ctx, "", product.SKU, when, lotRepo.LotCodeExists)
		if err != nil {
			return err
		}
		lot := &entity.Lot{
			ID:           uuid.New().String(),
			MovementID:   mov.ID,
			ProductID:    product.ID,
			LocationID:   loc.ID,
			LotCode:      code,
			ReceivedAt:   when,
			UnitCost:     cost,
			QtyReceived:  in.Quantity,
			QtyRemaining: in.Quantity,
			IsInitial:    in.IsInitial,
			CreatedAt:    mov.CreatedAt,
		}
		if err := lotRepo.Create(ctx, lot); err != nil {
			return err
		}
		stockAfter, err := lotRepo.SumRemaining(ctx, product.ID, loc.ID)
		if err != nil {
			return err
		}
		result = &MovementResult{Movement: mov, StockAfter: stockAfter}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Sale registra una venta: consume lotes FIFO y agrega el movimiento de
// salida con la base de costo de los lotes consumidos. El precio nulo cae al
// precio por defecto del catálogo.
func (uc *MovementUseCase) Sale(ctx context.Context, actorID string, in dto.SaleRequest) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	loc, err := uc.resolveLocation(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	price := product.DefaultPrice
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	if price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	when := movementTime(in.MovementDate)

	mov := &entity.Movement{
		ID:           uuid.New().String(),
		Type:         entity.MovementSale,
		ProductID:    product.ID,
		LocationID:   loc.ID,
		Quantity:     in.Quantity.Neg(),
		UnitPrice:    &price,
		Note:         in.Note,
		MovementDate: when,
		CreatedAt:    time.Now(),
		CreatedBy:    actorID,
	}
	return uc.runConsumption(ctx, product, loc, mov, in.Quantity, when)
}

// Adjustment corrige stock: cantidad positiva crea un lote (código ADJ-…),
// negativa consume FIFO. La nota es obligatoria.
func (uc *MovementUseCase) Adjustment(ctx context.Context, actorID string, in dto.AdjustmentRequest) (*MovementResult, error) {
	if in.Quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	loc, err := uc.resolveLocation(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	when := movementTime(in.MovementDate)
	now := time.Now()

	if in.Quantity.IsPositive() {
		cost := product.DefaultCost
		if in.UnitCost != nil {
			cost = *in.UnitCost
		}
		if cost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		var result *MovementResult
		err = uc.txRunner.Run(ctx, func(
			movRepo repository.MovementRepository,
			lotRepo repository.LotRepository,
			_ repository.ProductRepository,
		) error {
			mov := &entity.Movement{
				ID:           uuid.New().String(),
				Type:         entity.MovementAdjustment,
				ProductID:    product.ID,
				LocationID:   loc.ID,
				Quantity:     in.Quantity,
				UnitCost:     cost,
				IsInitial:    in.IsInitial,
				Note:         in.Note,
				MovementDate: when,
				CreatedAt:    now,
				CreatedBy:    actorID,
			}
			if err := movRepo.Create(ctx, mov); err != nil {
				return err
			}
			code, err := generateLotCode(ctx, "ADJ", product.SKU, when, lotRepo.LotCodeExists)
			if err != nil {
				return err
			}
			lot := &entity.Lot{
				ID:           uuid.New().String(),
				MovementID:   mov.ID,
				ProductID:    product.ID,
				LocationID:   loc.ID,
				LotCode:      code,
				ReceivedAt:   when,
				UnitCost:     cost,
				QtyReceived:  in.Quantity,
				QtyRemaining: in.Quantity,
				IsInitial:    in.IsInitial,
				CreatedAt:    now,
			}
			if err := lotRepo.Create(ctx, lot); err != nil {
				return err
			}
			stockAfter, err := lotRepo.SumRemaining(ctx, product.ID, loc.ID)
			if err != nil {
				return err
			}
			result = &MovementResult{Movement: mov, StockAfter: stockAfter}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	qty := in.Quantity.Abs()
	mov := &entity.Movement{
		ID:           uuid.New().String(),
		Type:         entity.MovementAdjustment,
		ProductID:    product.ID,
		LocationID:   loc.ID,
		Quantity:     in.Quantity,
		Note:         in.Note,
		MovementDate: when,
		CreatedAt:    now,
		CreatedBy:    actorID,
	}
	return uc.runConsumption(ctx, product, loc, mov, qty, when)
}

// SupplierReturn devuelve mercadería al proveedor: consume lotes FIFO sin
// destino, valorada al costo de los lotes consumidos.
func (uc *MovementUseCase) SupplierReturn(ctx context.Context, actorID string, in dto.SupplierReturnRequest) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	loc, err := uc.resolveLocation(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	when := movementTime(in.MovementDate)

	mov := &entity.Movement{
		ID:           uuid.New().String(),
		Type:         entity.MovementSupplierReturn,
		ProductID:    product.ID,
		LocationID:   loc.ID,
		Quantity:     in.Quantity.Neg(),
		Note:         in.Note,
		MovementDate: when,
		CreatedAt:    time.Now(),
		CreatedBy:    actorID,
	}
	return uc.runConsumption(ctx, product, loc, mov, in.Quantity, when)
}

// UpdateMovement edita una compra o una venta y reconstruye el FIFO del
// producto en la misma transacción. wantType restringe qué tipo acepta el
// endpoint que llama.
func (uc *MovementUseCase) UpdateMovement(ctx context.Context, wantType entity.MovementType, movementID string, in dto.UpdateMovementRequest) (*MovementResult, error) {
	if wantType != entity.MovementPurchase && wantType != entity.MovementSale {
		return nil, domain.ErrInvalidInput
	}
	locCodes, err := uc.locationCodes(ctx)
	if err != nil {
		return nil, err
	}
	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		productRepo repository.ProductRepository,
	) error {
		mov, err := movRepo.GetByID(ctx, movementID)
		if err != nil {
			return err
		}
		if mov.Type != wantType {
			return domain.ErrNotFound
		}
		product, err := productRepo.GetByID(ctx, mov.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity != nil {
			if !in.Quantity.IsPositive() {
				return domain.ErrInvalidInput
			}
			if mov.Type == entity.MovementSale {
				mov.Quantity = in.Quantity.Neg()
			} else {
				mov.Quantity = *in.Quantity
			}
		}
		if in.UnitCost != nil {
			if in.UnitCost.IsNegative() || mov.Type != entity.MovementPurchase {
				return domain.ErrInvalidInput
			}
			mov.UnitCost = *in.UnitCost
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() || mov.Type != entity.MovementSale {
				return domain.ErrInvalidInput
			}
			price := *in.UnitPrice
			mov.UnitPrice = &price
		}
		if in.MovementDate != nil {
			mov.MovementDate = *in.MovementDate
		}
		if in.Note != nil {
			mov.Note = *in.Note
		}
		if err := movRepo.Update(ctx, mov); err != nil {
			return err
		}
		if err := rebuildProduct(ctx, movRepo, lotRepo, product, "", locCodes); err != nil {
			return err
		}
		stockAfter, err := lotRepo.SumRemaining(ctx, product.ID, mov.LocationID)
		if err != nil {
			return err
		}
		result = &MovementResult{Movement: mov, StockAfter: stockAfter}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMovement elimina una compra o una venta y reconstruye el FIFO del
// producto. Borrar una compra cuyas unidades ya se consumieron falla con
// InsufficientStockError al reproducir el historial.
func (uc *MovementUseCase) DeleteMovement(ctx context.Context, wantType entity.MovementType, movementID string) error {
	if wantType != entity.MovementPurchase && wantType != entity.MovementSale {
		return domain.ErrInvalidInput
	}
	locCodes, err := uc.locationCodes(ctx)
	if err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		productRepo repository.ProductRepository,
	) error {
		mov, err := movRepo.GetByID(ctx, movementID)
		if err != nil {
			return err
		}
		if mov.Type != wantType {
			return domain.ErrNotFound
		}
		product, err := productRepo.GetByID(ctx, mov.ProductID)
		if err != nil {
			return err
		}
		return rebuildProduct(ctx, movRepo, lotRepo, product, mov.ID, locCodes)
	})
}

// GetMovement devuelve un movimiento con su plan de consumo.
func (uc *MovementUseCase) GetMovement(ctx context.Context, movementID string) (*entity.Movement, []*entity.Allocation, error) {
	mov, err := uc.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, nil, err
	}
	allocs, err := uc.movementRepo.AllocationsByMovement(ctx, movementID)
	if err != nil {
		return nil, nil, err
	}
	return mov, allocs, nil
}

// History consulta el historial de movimientos con filtros y paginación.
func (uc *MovementUseCase) History(ctx context.Context, f repository.HistoryFilter) ([]*entity.Movement, error) {
	if f.Limit <= 0 || f.Limit > uc.opts.HistoryLimit {
		f.Limit = uc.opts.HistoryLimit
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.movementRepo.History(ctx, f)
}

// ── helpers ──────────────────────────────────────────────────────────────

// runConsumption ejecuta en transacción el patrón común de toda salida:
// bloquear lotes, asignar FIFO, persistir movimiento, decrementos y
// asignaciones.
func (uc *MovementUseCase) runConsumption(ctx context.Context, product *entity.Product, loc *entity.Location, mov *entity.Movement, qty decimal.Decimal, when time.Time) (*MovementResult, error) {
	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		lotRepo repository.LotRepository,
		_ repository.ProductRepository,
	) error {
		res, err := uc.applyConsumption(ctx, movRepo, lotRepo, product, loc, mov, qty, when)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyConsumption asume que corre dentro de una tx con los repos atados a
// ella. Ante faltante aplica la política configurada: reject rechaza con el
// detalle (ubicación, disponible, solicitado); allow crea un lote de
// respaldo a costo cero para que la conciliación del libro nunca se rompa.
// La política allow aplica solo a ventas: devoluciones al proveedor y
// ajustes negativos no pueden retirar stock que nunca existió, así que
// rechazan siempre, igual que los traslados.
func (uc *MovementUseCase) applyConsumption(
	ctx context.Context,
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	product *entity.Product,
	loc *entity.Location,
	mov *entity.Movement,
	qty decimal.Decimal,
	when time.Time,
) (*MovementResult, error) {
	lots, err := lotRepo.ListAvailableForUpdate(ctx, product.ID, loc.ID)
	if err != nil {
		return nil, err
	}
	available := inventory.Available(lots)
	var warnings []string
	if available.LessThan(qty) {
		if uc.opts.ShortfallPolicy != ShortfallAllow || mov.Type != entity.MovementSale {
			return nil, &domain.InsufficientStockError{
				LocationCode: loc.Code,
				Available:    available,
				Requested:    qty,
			}
		}
		shortfall := qty.Sub(available)
		backup, err := uc.createBackupLot(ctx, movRepo, lotRepo, product, loc, shortfall, when, mov.CreatedBy)
		if err != nil {
			return nil, err
		}
		lots = append(lots, backup)
		warnings = append(warnings, fmt.Sprintf("faltante de %s cubierto con lote de respaldo a costo cero", shortfall.String()))
	}

	plan, shortfall := inventory.Allocate(lots, qty)
	if shortfall.IsPositive() {
		// No debería ocurrir tras la verificación previa dentro del lock.
		return nil, &domain.InsufficientStockError{LocationCode: loc.Code, Available: available, Requested: qty}
	}
	mov.UnitCost = weightedCost(plan)
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}
	allocs := make([]*entity.Allocation, 0, len(plan))
	for _, c := range plan {
		if err := lotRepo.UpdateRemaining(ctx, c.LotID, byID[c.LotID].QtyRemaining); err != nil {
			return nil, err
		}
		alloc := &entity.Allocation{
			ID:         uuid.New().String(),
			MovementID: mov.ID,
			LotID:      c.LotID,
			Quantity:   c.Quantity,
			UnitCost:   c.UnitCost,
		}
		if err := movRepo.CreateAllocation(ctx, alloc); err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}

	stockAfter := inventory.Available(lots)
	if product.MinStock.IsPositive() && stockAfter.LessThan(product.MinStock) {
		warnings = append(warnings, fmt.Sprintf("stock bajo el mínimo (%s): reponer", product.MinStock.String()))
	}
	return &MovementResult{
		Movement:    mov,
		Allocations: allocs,
		StockAfter:  stockAfter,
		Warning:     strings.Join(warnings, "; "),
	}, nil
}

// createBackupLot cubre un faltante permitido con un ajuste a costo cero y
// su lote de respaldo. El ajuste mantiene la conciliación del libro (todo
// remanente de lote tiene un movimiento que lo respalda) y el costo cero
// queda excluido del costo histórico mínimo del producto.
func (uc *MovementUseCase) createBackupLot(
	ctx context.Context,
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	product *entity.Product,
	loc *entity.Location,
	qty decimal.Decimal,
	when time.Time,
	actorID string,
) (*entity.Lot, error) {
	now := time.Now()
	adj := &entity.Movement{
		ID:           uuid.New().String(),
		Type:         entity.MovementAdjustment,
		ProductID:    product.ID,
		LocationID:   loc.ID,
		Quantity:     qty,
		UnitCost:     decimal.Zero,
		Note:         "ajuste automático: faltante cubierto con lote de respaldo",
		MovementDate: when,
		CreatedAt:    now,
		CreatedBy:    actorID,
	}
	if err := movRepo.Create(ctx, adj); err != nil {
		return nil, err
	}
	code, err := generateLotCode(ctx, "BO", product.SKU, when, lotRepo.LotCodeExists)
	if err != nil {
		return nil, err
	}
	lot := &entity.Lot{
		ID:           uuid.New().String(),
		MovementID:   adj.ID,
		ProductID:    product.ID,
		LocationID:   loc.ID,
		LotCode:      code,
		ReceivedAt:   when,
		UnitCost:     decimal.Zero,
		QtyReceived:  qty,
		QtyRemaining: qty,
		CreatedAt:    now,
	}
	if err := lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// locationCodes devuelve el mapa ID → código de todas las ubicaciones, para
// que los errores de faltante durante la reconstrucción nombren la ubicación
// por su código y no por su ID.
func (uc *MovementUseCase) locationCodes(ctx context.Context) (map[string]string, error) {
	locs, err := uc.locationRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]string, len(locs))
	for _, l := range locs {
		codes[l.ID] = l.Code
	}
	return codes, nil
}

func (uc *MovementUseCase) resolveLocation(ctx context.Context, locationID string) (*entity.Location, error) {
	if locationID == "" {
		return uc.locationRepo.GetByCode(ctx, uc.opts.CentralLocationCode)
	}
	return uc.locationRepo.GetByID(ctx, locationID)
}

func movementTime(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}

// weightedCost calcula el costo unitario promedio ponderado de un plan de
// consumo (costo total / cantidad total). Es solo informativo sobre el
// movimiento; la base de costo real vive en las asignaciones por lote.
func weightedCost(plan []inventory.Consumption) decimal.Decimal {
	total := decimal.Zero
	qty := decimal.Zero
	for _, c := range plan {
		total = total.Add(c.Quantity.Mul(c.UnitCost))
		qty = qty.Add(c.Quantity)
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return total.Div(qty)
}
