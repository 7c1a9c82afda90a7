package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) time.Time {
	return time.Date(2026, 3, n, 10, 0, 0, 0, time.UTC)
}

type fixture struct {
	store   *fakeStore
	uc      *MovementUseCase
	tuc     *TransferUseCase
	product *entity.Product
	central *entity.Location
	pos     *entity.Location
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := newFakeStore()
	central := &entity.Location{ID: uuid.New().String(), Code: "CENTRAL", Name: "Depósito central"}
	pos := &entity.Location{ID: uuid.New().String(), Code: "POS1", Name: "Punto de venta 1"}
	store.locations[central.ID] = central
	store.locations[pos.ID] = pos
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          "CAFE-250",
		Name:         "Café molido 250g",
		UnitMeasure:  "unidad",
		DefaultCost:  d("8"),
		DefaultPrice: d("15"),
	}
	store.products[product.ID] = product
	opts.CentralLocationCode = "CENTRAL"
	tx := &fakeTxRunner{store}
	uc := NewMovementUseCase(tx, &fakeProductRepo{store}, &fakeLocationRepo{store},
		&fakeMovementRepo{store}, &fakeLotRepo{store}, opts)
	tuc := NewTransferUseCase(tx, &fakeProductRepo{store}, &fakeLocationRepo{store},
		&fakeMovementRepo{store}, opts)
	return &fixture{store: store, uc: uc, tuc: tuc, product: product, central: central, pos: pos}
}

// compra registra una compra con fecha y costo dados.
func (f *fixture) compra(t *testing.T, qty, cost string, when time.Time) *MovementResult {
	t.Helper()
	c := d(cost)
	res, err := f.uc.Purchase(context.Background(), "admin", dto.PurchaseRequest{
		ProductID:    f.product.ID,
		Quantity:     d(qty),
		UnitCost:     &c,
		MovementDate: &when,
	})
	require.NoError(t, err)
	return res
}

// conciliado verifica el invariante del libro: suma con signo de movimientos
// == suma de remanentes de lotes, por ubicación.
func (f *fixture) conciliado(t *testing.T, loc *entity.Location) {
	t.Helper()
	ledger := f.store.ledgerSum(f.product.ID, loc.ID)
	lots := f.store.lotSum(f.product.ID, loc.ID)
	require.True(t, ledger.Equal(lots),
		"libro %s vs lotes %s en %s", ledger.String(), lots.String(), loc.Code)
}

// ── compras ──────────────────────────────────────────────────────────────

func TestCompra_CreaLote(t *testing.T) {
	f := newFixture(t, Options{})
	res := f.compra(t, "10", "5", day(1))

	assert.True(t, res.StockAfter.Equal(d("10")))
	assert.Equal(t, entity.MovementPurchase, res.Movement.Type)

	lots, _ := (&fakeLotRepo{f.store}).ListByProduct(context.Background(), f.product.ID)
	require.Len(t, lots, 1)
	assert.Equal(t, "CAFE-250-2603011000", lots[0].LotCode)
	assert.True(t, lots[0].QtyRemaining.Equal(d("10")))
	assert.Equal(t, res.Movement.ID, lots[0].MovementID)
	f.conciliado(t, f.central)
}

func TestCompra_CostoPorDefecto(t *testing.T) {
	f := newFixture(t, Options{})
	when := day(1)
	res, err := f.uc.Purchase(context.Background(), "admin", dto.PurchaseRequest{
		ProductID:    f.product.ID,
		Quantity:     d("3"),
		MovementDate: &when,
	})
	require.NoError(t, err)
	assert.True(t, res.Movement.UnitCost.Equal(d("8")), "debe caer al costo por defecto del catálogo")
}

func TestCompra_CodigoDeLoteColision(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "1", "5", day(1))
	f.compra(t, "1", "5", day(1)) // mismo SKU, mismo minuto

	lots, _ := (&fakeLotRepo{f.store}).ListByProduct(context.Background(), f.product.ID)
	require.Len(t, lots, 2)
	assert.Equal(t, "CAFE-250-2603011000", lots[0].LotCode)
	assert.Equal(t, "CAFE-250-2603011000-A", lots[1].LotCode)
}

// ── ventas ───────────────────────────────────────────────────────────────

func TestVenta_ConsumoFIFOConBaseDeCosto(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))
	f.compra(t, "5", "12", day(2))

	res, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID: f.product.ID,
		Quantity:  d("7"),
	})
	require.NoError(t, err)

	require.Len(t, res.Allocations, 2)
	assert.True(t, res.Allocations[0].Quantity.Equal(d("5")))
	assert.True(t, res.Allocations[0].UnitCost.Equal(d("10")))
	assert.True(t, res.Allocations[1].Quantity.Equal(d("2")))
	assert.True(t, res.Allocations[1].UnitCost.Equal(d("12")))

	// Costo promedio ponderado informativo: (5*10 + 2*12) / 7.
	assert.True(t, res.Movement.UnitCost.Equal(d("74").Div(d("7"))))
	assert.True(t, res.Movement.Quantity.Equal(d("-7")))
	assert.True(t, res.StockAfter.Equal(d("3")))
	f.conciliado(t, f.central)
}

func TestVenta_PrecioPorDefecto(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))

	res, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID: f.product.ID,
		Quantity:  d("1"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Movement.UnitPrice)
	assert.True(t, res.Movement.UnitPrice.Equal(d("15")))
}

func TestVenta_StockInsuficiente_Rechaza(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))
	movimientosAntes := len(f.store.movements)

	_, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID: f.product.ID,
		Quantity:  d("8"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "CENTRAL", ise.LocationCode)
	assert.True(t, ise.Available.Equal(d("5")))
	assert.True(t, ise.Requested.Equal(d("8")))

	// Nada quedó a medias: ni movimiento ni decremento de lote.
	assert.Len(t, f.store.movements, movimientosAntes)
	assert.True(t, f.store.lotSum(f.product.ID, f.central.ID).Equal(d("5")))
	f.conciliado(t, f.central)
}

func TestVenta_PoliticaAllow_LoteDeRespaldo(t *testing.T) {
	f := newFixture(t, Options{ShortfallPolicy: ShortfallAllow})
	f.compra(t, "5", "10", day(1))

	res, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID: f.product.ID,
		Quantity:  d("8"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "lote de respaldo")
	assert.True(t, res.StockAfter.Equal(d("0")))

	// El ajuste de respaldo respalda el faltante en el libro: compra +5,
	// ajuste +3, venta -8.
	f.conciliado(t, f.central)

	// El costo cero del respaldo no contamina el costo histórico mínimo.
	min, _ := (&fakeLotRepo{f.store}).MinHistoricalCost(context.Background(), f.product.ID)
	assert.True(t, min.Equal(d("10")))
}

// ── ajustes y devoluciones ───────────────────────────────────────────────

func TestAjuste_PositivoCreaLoteInicial(t *testing.T) {
	f := newFixture(t, Options{})
	when := day(1)
	res, err := f.uc.Adjustment(context.Background(), "admin", dto.AdjustmentRequest{
		ProductID:    f.product.ID,
		Quantity:     d("20"),
		MovementDate: &when,
		IsInitial:    true,
		Note:         "carga inicial de inventario",
	})
	require.NoError(t, err)
	assert.True(t, res.StockAfter.Equal(d("20")))

	lots, _ := (&fakeLotRepo{f.store}).ListByProduct(context.Background(), f.product.ID)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].IsInitial)
	assert.Equal(t, "ADJ-CAFE-250-2603011000", lots[0].LotCode)
	f.conciliado(t, f.central)
}

func TestAjuste_InicialSeConsumePrimero(t *testing.T) {
	f := newFixture(t, Options{})
	// Compra vieja primero, luego carga inicial con fecha posterior.
	f.compra(t, "5", "10", day(1))
	when := day(5)
	_, err := f.uc.Adjustment(context.Background(), "admin", dto.AdjustmentRequest{
		ProductID:    f.product.ID,
		Quantity:     d("5"),
		UnitCost:     decimalPtr(d("2")),
		MovementDate: &when,
		IsInitial:    true,
		Note:         "inventario preexistente",
	})
	require.NoError(t, err)

	res, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID: f.product.ID,
		Quantity:  d("3"),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.True(t, res.Allocations[0].UnitCost.Equal(d("2")),
		"el lote inicial se consume antes aunque su fecha sea posterior")
}

func TestAjuste_NegativoConsume(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "10", "5", day(1))

	res, err := f.uc.Adjustment(context.Background(), "admin", dto.AdjustmentRequest{
		ProductID: f.product.ID,
		Quantity:  d("-4"),
		Note:      "merma por rotura",
	})
	require.NoError(t, err)
	assert.True(t, res.StockAfter.Equal(d("6")))
	assert.True(t, res.Movement.Quantity.Equal(d("-4")))
	f.conciliado(t, f.central)
}

func TestDevolucionProveedor_ValoradaAlCostoFIFO(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))
	f.compra(t, "5", "12", day(2))

	res, err := f.uc.SupplierReturn(context.Background(), "admin", dto.SupplierReturnRequest{
		ProductID: f.product.ID,
		Quantity:  d("6"),
		Note:      "lote defectuoso",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementSupplierReturn, res.Movement.Type)
	// 5@10 + 1@12 = 62 / 6
	assert.True(t, res.Movement.UnitCost.Equal(d("62").Div(d("6"))))
	assert.True(t, res.StockAfter.Equal(d("4")))
	f.conciliado(t, f.central)
}

// La política allow solo cubre ventas: una devolución al proveedor no puede
// retirar stock que nunca estuvo en mano, así que rechaza aunque la política
// esté activa.
func TestDevolucionProveedor_PoliticaAllow_RechazaIgual(t *testing.T) {
	f := newFixture(t, Options{ShortfallPolicy: ShortfallAllow})
	f.compra(t, "2", "10", day(1))
	movimientosAntes := len(f.store.movements)
	lotesAntes := len(f.store.lots)

	_, err := f.uc.SupplierReturn(context.Background(), "admin", dto.SupplierReturnRequest{
		ProductID: f.product.ID,
		Quantity:  d("5"),
		Note:      "lote defectuoso",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Available.Equal(d("2")))
	assert.True(t, ise.Requested.Equal(d("5")))

	// Sin lote de respaldo ni movimiento a medias.
	assert.Len(t, f.store.movements, movimientosAntes)
	assert.Len(t, f.store.lots, lotesAntes)
	assert.True(t, f.store.lotSum(f.product.ID, f.central.ID).Equal(d("2")))
	f.conciliado(t, f.central)
}

func TestAjusteNegativo_PoliticaAllow_RechazaIgual(t *testing.T) {
	f := newFixture(t, Options{ShortfallPolicy: ShortfallAllow})
	f.compra(t, "2", "10", day(1))
	lotesAntes := len(f.store.lots)

	_, err := f.uc.Adjustment(context.Background(), "admin", dto.AdjustmentRequest{
		ProductID: f.product.ID,
		Quantity:  d("-5"),
		Note:      "merma por rotura",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Len(t, f.store.lots, lotesAntes)
	assert.True(t, f.store.lotSum(f.product.ID, f.central.ID).Equal(d("2")))
	f.conciliado(t, f.central)
}

// ── edición y borrado con reconstrucción FIFO ────────────────────────────

func TestEditarCompra_ReconstruyeFIFO(t *testing.T) {
	f := newFixture(t, Options{})
	compra := f.compra(t, "10", "5", day(1))
	codigoOriginal := lotCodeOf(t, f.store, compra.Movement.ID)

	when := day(2)
	_, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID:    f.product.ID,
		Quantity:     d("4"),
		MovementDate: &when,
	})
	require.NoError(t, err)

	res, err := f.uc.UpdateMovement(context.Background(), entity.MovementPurchase,
		compra.Movement.ID, dto.UpdateMovementRequest{Quantity: decimalPtr(d("8"))})
	require.NoError(t, err)

	assert.True(t, res.StockAfter.Equal(d("4")))
	assert.Equal(t, codigoOriginal, lotCodeOf(t, f.store, compra.Movement.ID),
		"la reconstrucción conserva el código del lote")
	f.conciliado(t, f.central)
}

func TestEditarCompra_DejaHistorialInconsistente_Falla(t *testing.T) {
	f := newFixture(t, Options{})
	compra := f.compra(t, "10", "5", day(1))
	when := day(2)
	_, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID:    f.product.ID,
		Quantity:     d("8"),
		MovementDate: &when,
	})
	require.NoError(t, err)

	// Bajar la compra a 6 dejaría la venta de 8 sin respaldo.
	_, err = f.uc.UpdateMovement(context.Background(), entity.MovementPurchase,
		compra.Movement.ID, dto.UpdateMovementRequest{Quantity: decimalPtr(d("6"))})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El detalle del faltante trae el código de la ubicación, no su id.
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "CENTRAL", ise.LocationCode)

	// Rollback completo: el libro sigue como antes del intento.
	assert.True(t, f.store.lotSum(f.product.ID, f.central.ID).Equal(d("2")))
	f.conciliado(t, f.central)
}

func TestBorrarCompra_ConUnidadesVendidas_Falla(t *testing.T) {
	f := newFixture(t, Options{})
	compra := f.compra(t, "5", "10", day(1))
	when := day(2)
	_, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID:    f.product.ID,
		Quantity:     d("3"),
		MovementDate: &when,
	})
	require.NoError(t, err)

	err = f.uc.DeleteMovement(context.Background(), entity.MovementPurchase, compra.Movement.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, sigue := f.store.movements[compra.Movement.ID]
	assert.True(t, sigue, "la compra no debe borrarse si el rollback fue total")
	f.conciliado(t, f.central)
}

func TestBorrarVenta_RestauraStock(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))
	when := day(2)
	venta, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID:    f.product.ID,
		Quantity:     d("3"),
		MovementDate: &when,
	})
	require.NoError(t, err)

	err = f.uc.DeleteMovement(context.Background(), entity.MovementSale, venta.Movement.ID)
	require.NoError(t, err)

	assert.True(t, f.store.lotSum(f.product.ID, f.central.ID).Equal(d("5")))
	assert.Empty(t, f.store.allocs)
	f.conciliado(t, f.central)
}

// Si un lote perdió su identidad (no hay código que conservar), la
// reproducción lo regenera con el mismo prefijo con el que su tipo de
// movimiento crea lotes.
func TestReconstruccion_RegeneraCodigoConPrefijoDeAjuste(t *testing.T) {
	f := newFixture(t, Options{})
	when := day(3)
	res, err := f.uc.Adjustment(context.Background(), "admin", dto.AdjustmentRequest{
		ProductID:    f.product.ID,
		Quantity:     d("4"),
		MovementDate: &when,
		Note:         "conteo físico",
	})
	require.NoError(t, err)

	for id, l := range f.store.lots {
		if l.MovementID == res.Movement.ID {
			delete(f.store.lots, id)
		}
	}

	err = rebuildProduct(context.Background(), &fakeMovementRepo{f.store}, &fakeLotRepo{f.store},
		f.product, "", map[string]string{f.central.ID: f.central.Code})
	require.NoError(t, err)

	codigo := lotCodeOf(t, f.store, res.Movement.ID)
	assert.True(t, strings.HasPrefix(codigo, "ADJ-"), "código regenerado: %s", codigo)
	f.conciliado(t, f.central)
}

func TestEditarVenta_TipoEquivocado_NotFound(t *testing.T) {
	f := newFixture(t, Options{})
	compra := f.compra(t, "5", "10", day(1))

	_, err := f.uc.UpdateMovement(context.Background(), entity.MovementSale,
		compra.Movement.ID, dto.UpdateMovementRequest{Quantity: decimalPtr(d("2"))})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ── historial ────────────────────────────────────────────────────────────

func TestHistorial_FiltroPorTipo(t *testing.T) {
	f := newFixture(t, Options{})
	f.compra(t, "5", "10", day(1))
	when := day(2)
	_, err := f.uc.Sale(context.Background(), "vendedor", dto.SaleRequest{
		ProductID:    f.product.ID,
		Quantity:     d("2"),
		MovementDate: &when,
	})
	require.NoError(t, err)

	movs, err := f.uc.History(context.Background(), repository.HistoryFilter{
		ProductID: f.product.ID,
		Type:      entity.MovementSale,
	})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementSale, movs[0].Type)
}

func TestHistorial_TipoInvalido(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.uc.History(context.Background(), repository.HistoryFilter{Type: "robo"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── helpers de test ──────────────────────────────────────────────────────

func decimalPtr(v decimal.Decimal) *decimal.Decimal { return &v }

func lotCodeOf(t *testing.T, store *fakeStore, movementID string) string {
	t.Helper()
	for _, l := range store.lots {
		if l.MovementID == movementID {
			return l.LotCode
		}
	}
	t.Fatalf("no hay lote para el movimiento %s", movementID)
	return ""
}
