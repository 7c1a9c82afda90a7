package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/textutil"
)

// fakeStore es la "base de datos" en memoria de los tests de casos de uso.
// El fakeTxRunner le da semántica transaccional real (snapshot + rollback)
// para poder probar atomicidad sin Postgres.
type fakeStore struct {
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	movements map[string]*entity.Movement
	lots      map[string]*entity.Lot
	allocs    map[string]*entity.Allocation
	movOrder  []string
	seq       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
		movements: make(map[string]*entity.Movement),
		lots:      make(map[string]*entity.Lot),
		allocs:    make(map[string]*entity.Allocation),
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.locations {
		l := *v
		c.locations[k] = &l
	}
	for k, v := range s.movements {
		m := *v
		c.movements[k] = &m
	}
	for k, v := range s.lots {
		l := *v
		c.lots[k] = &l
	}
	for k, v := range s.allocs {
		a := *v
		c.allocs[k] = &a
	}
	c.movOrder = append([]string(nil), s.movOrder...)
	c.seq = s.seq
	return c
}

// fakeTxRunner imita el TxRunner de pgx: snapshot del estado antes de fn y
// restauración completa si fn devuelve error.
type fakeTxRunner struct{ store *fakeStore }

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
) error) error {
	snapshot := r.store.clone()
	err := fn(&fakeMovementRepo{r.store}, &fakeLotRepo{r.store}, &fakeProductRepo{r.store})
	if err != nil {
		*r.store = *snapshot
	}
	return err
}

// ── repositorios fake ────────────────────────────────────────────────────

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	norm := entity.NormalizeSKU(sku)
	for _, p := range r.s.products {
		if p.SKU == norm {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProductRepo) Update(_ context.Context, p *entity.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	for _, l := range r.s.lots {
		if l.ProductID == id {
			return domain.ErrConstraintViolation
		}
	}
	for _, m := range r.s.movements {
		if m.ProductID == id {
			return domain.ErrConstraintViolation
		}
	}
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, query string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		if query == "" || strings.Contains(textutil.Fold(p.Name), query) || strings.Contains(textutil.Fold(p.SKU), query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeLocationRepo struct{ s *fakeStore }

func (r *fakeLocationRepo) Create(_ context.Context, l *entity.Location) error {
	r.s.locations[l.ID] = l
	return nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.s.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (r *fakeLocationRepo) GetByCode(_ context.Context, code string) (*entity.Location, error) {
	for _, l := range r.s.locations {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeLocationRepo) List(_ context.Context) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range r.s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type fakeLotRepo struct{ s *fakeStore }

func (r *fakeLotRepo) Create(_ context.Context, lot *entity.Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	r.s.seq++
	lot.Seq = r.s.seq
	r.s.lots[lot.ID] = lot
	return nil
}

func (r *fakeLotRepo) ListAvailableForUpdate(_ context.Context, productID, locationID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID && l.LocationID == locationID && l.QtyRemaining.IsPositive() {
			out = append(out, l)
		}
	}
	inventory.SortLots(out)
	return out, nil
}

func (r *fakeLotRepo) UpdateRemaining(_ context.Context, lotID string, remaining decimal.Decimal) error {
	l, ok := r.s.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	l.QtyRemaining = remaining
	return nil
}

func (r *fakeLotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	l, ok := r.s.lots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (r *fakeLotRepo) GetByMovement(_ context.Context, movementID string) (*entity.Lot, error) {
	for _, l := range r.s.lots {
		if l.MovementID == movementID {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeLotRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *fakeLotRepo) SumRemaining(_ context.Context, productID, locationID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range r.s.lots {
		if l.ProductID == productID && (locationID == "" || l.LocationID == locationID) {
			total = total.Add(l.QtyRemaining)
		}
	}
	return total, nil
}

func (r *fakeLotRepo) MinHistoricalCost(_ context.Context, productID string) (decimal.Decimal, error) {
	var min decimal.Decimal
	found := false
	for _, l := range r.s.lots {
		if l.ProductID != productID || !l.UnitCost.IsPositive() {
			continue
		}
		if !found || l.UnitCost.LessThan(min) {
			min = l.UnitCost
			found = true
		}
	}
	if !found {
		return decimal.Zero, nil
	}
	return min, nil
}

func (r *fakeLotRepo) LotCodeExists(_ context.Context, code string) (bool, error) {
	for _, l := range r.s.lots {
		if l.LotCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLotRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.lots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.lots, id)
	return nil
}

func (r *fakeLotRepo) DeleteByProduct(_ context.Context, productID string) error {
	for id, l := range r.s.lots {
		if l.ProductID == productID {
			delete(r.s.lots, id)
		}
	}
	return nil
}

type fakeMovementRepo struct{ s *fakeStore }

func (r *fakeMovementRepo) Create(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Type == entity.MovementTransferIn {
		if err := entity.ValidateTransferLink(m, r.s.movements[m.OutID]); err != nil {
			return err
		}
	}
	r.s.movements[m.ID] = m
	r.s.movOrder = append(r.s.movOrder, m.ID)
	return nil
}

func (r *fakeMovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	m, ok := r.s.movements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (r *fakeMovementRepo) Update(_ context.Context, m *entity.Movement) error {
	if _, ok := r.s.movements[m.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.movements[m.ID] = m
	return nil
}

func (r *fakeMovementRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.movements[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.movements, id)
	for i, mid := range r.s.movOrder {
		if mid == id {
			r.s.movOrder = append(r.s.movOrder[:i], r.s.movOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeMovementRepo) ListByTransfer(_ context.Context, transferID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, id := range r.s.movOrder {
		if m := r.s.movements[id]; m != nil && m.TransferID == transferID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListByProductAsc(_ context.Context, productID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, id := range r.s.movOrder {
		if m := r.s.movements[id]; m != nil && m.ProductID == productID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MovementDate.Before(out[j].MovementDate)
	})
	return out, nil
}

func (r *fakeMovementRepo) History(_ context.Context, f repository.HistoryFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for i := len(r.s.movOrder) - 1; i >= 0; i-- {
		m := r.s.movements[r.s.movOrder[i]]
		if m == nil {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && m.LocationID != f.LocationID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.From != nil && m.MovementDate.Before(*f.From) {
			continue
		}
		if f.To != nil && m.MovementDate.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MovementDate.After(out[j].MovementDate)
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeMovementRepo) CreateAllocation(_ context.Context, a *entity.Allocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.s.allocs[a.ID] = a
	return nil
}

func (r *fakeMovementRepo) AllocationsByMovement(_ context.Context, movementID string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	for _, a := range r.s.allocs {
		if a.MovementID == movementID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMovementRepo) DeleteAllocationsByMovement(_ context.Context, movementID string) error {
	for id, a := range r.s.allocs {
		if a.MovementID == movementID {
			delete(r.s.allocs, id)
		}
	}
	return nil
}

func (r *fakeMovementRepo) DeleteAllocationsByProduct(_ context.Context, productID string) error {
	for id, a := range r.s.allocs {
		m := r.s.movements[a.MovementID]
		if m != nil && m.ProductID == productID {
			delete(r.s.allocs, id)
		}
	}
	return nil
}

// ── invariante de conciliación ───────────────────────────────────────────

// ledgerSum suma con signo los movimientos de un producto en una ubicación.
func (s *fakeStore) ledgerSum(productID, locationID string) decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.movements {
		if m.ProductID == productID && m.LocationID == locationID {
			total = total.Add(m.Quantity)
		}
	}
	return total
}

// lotSum suma los remanentes de los lotes de un producto en una ubicación.
func (s *fakeStore) lotSum(productID, locationID string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lots {
		if l.ProductID == productID && l.LocationID == locationID {
			total = total.Add(l.QtyRemaining)
		}
	}
	return total
}
