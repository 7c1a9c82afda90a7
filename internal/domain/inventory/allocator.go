package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// Consumption es un tramo del plan de asignación: cuánto se tomó de qué lote
// y a qué costo unitario. El costo viaja con el tramo para que la base de
// costo siga al lote físico consumido, nunca a un promedio.
type Consumption struct {
	LotID    string
	LotCode  string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// SortLots ordena los lotes por prioridad de consumo:
//  1. lotes is_initial antes que cualquier lote normal, sin importar su fecha
//     (permite migrar stock preexistente marcado "consumir primero");
//  2. dentro de la misma clase, received_at ascendente (FIFO);
//  3. empate de fecha: orden de inserción (Seq) como desempate determinista.
func SortLots(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if a.IsInitial != b.IsInitial {
			return a.IsInitial
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.Seq < b.Seq
	})
}

// Allocate consume qty sobre los lotes en el orden dado, decrementando
// QtyRemaining de cada lote tocado. Devuelve el plan de consumo y el
// faltante (cero si la cantidad se cubrió completa). Nunca deja un lote con
// remanente negativo y nunca descarta silenciosamente cantidad sin cubrir:
// el llamador decide si rechaza o permite el faltante.
//
// Debe ejecutarse dentro de la misma transacción que el append al libro que
// registra el consumo; los lotes recibidos deben venir bloqueados (FOR
// UPDATE) y ya ordenados por SortLots o por la consulta equivalente.
func Allocate(lots []*entity.Lot, qty decimal.Decimal) ([]Consumption, decimal.Decimal) {
	remaining := qty
	var plan []Consumption
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		if lot.Exhausted() {
			continue
		}
		take := decimal.Min(lot.QtyRemaining, remaining)
		lot.QtyRemaining = lot.QtyRemaining.Sub(take)
		plan = append(plan, Consumption{
			LotID:    lot.ID,
			LotCode:  lot.LotCode,
			Quantity: take,
			UnitCost: lot.UnitCost,
		})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}

// Available suma el remanente de los lotes (cantidad asignable total).
func Available(lots []*entity.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.QtyRemaining)
	}
	return total
}
