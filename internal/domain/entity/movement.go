package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain"
)

// MovementType es el conjunto cerrado de tipos de movimiento del libro de
// inventario. Las reglas de signo y costo se deciden siempre por switch
// exhaustivo sobre este tipo, nunca por strings sueltos.
type MovementType string

const (
	MovementPurchase       MovementType = "purchase"        // entrada por compra: crea lote
	MovementSale           MovementType = "sale"            // salida por venta: consume lotes FIFO
	MovementAdjustment     MovementType = "adjustment"      // ajuste con signo: crea o consume lotes
	MovementTransferOut    MovementType = "transfer_out"    // salida por traslado entre ubicaciones
	MovementTransferIn     MovementType = "transfer_in"     // entrada por traslado, enlazada a su transfer_out
	MovementSupplierReturn MovementType = "supplier_return" // devolución al proveedor: consume y retira
)

// Valid reporta si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment,
		MovementTransferOut, MovementTransferIn, MovementSupplierReturn:
		return true
	}
	return false
}

// Consumes reporta si el tipo siempre consume lotes (cantidad negativa).
// adjustment consume solo cuando su cantidad es negativa.
func (t MovementType) Consumes() bool {
	switch t {
	case MovementSale, MovementTransferOut, MovementSupplierReturn:
		return true
	}
	return false
}

// Movement es una entrada inmutable del libro de inventario. Nunca se edita
// en sitio salvo las operaciones administrativas que reconstruyen el FIFO
// del producto; las correcciones normales son movimientos nuevos.
type Movement struct {
	ID           string
	Type         MovementType
	ProductID    string
	LocationID   string
	Quantity     decimal.Decimal  // con signo: entradas > 0, salidas < 0
	UnitCost     decimal.Decimal  // tipos con costo (purchase, adjustment+, transfer_*)
	UnitPrice    *decimal.Decimal // solo ventas
	TransferID   string           // identificador compartido por las líneas de un traslado
	OutID        string           // transfer_in: ID de su transfer_out pareja
	IsInitial    bool             // entradas marcadas como inventario inicial (se consume primero)
	Note         string
	MovementDate time.Time
	CreatedAt    time.Time
	CreatedBy    string // actor (user id del token)
}

// ValidateTransferLink verifica el contrato de enlace de un transfer_in en
// el momento del alta: su pareja transfer_out debe existir, ser del mismo
// producto y traslado, y las cantidades deben ser espejo. Para cualquier
// otro tipo no hay nada que verificar.
func ValidateTransferLink(in, out *Movement) error {
	if in.Type != MovementTransferIn {
		return nil
	}
	if in.OutID == "" || out == nil {
		return domain.ErrInvalidLinkage
	}
	if out.ID != in.OutID ||
		out.Type != MovementTransferOut ||
		out.ProductID != in.ProductID ||
		out.TransferID != in.TransferID ||
		!out.Quantity.Neg().Equal(in.Quantity) {
		return domain.ErrInvalidLinkage
	}
	return nil
}

// Allocation registra el consumo de un movimiento contra un lote concreto,
// preservando el costo unitario del lote consumido (base de costo FIFO).
type Allocation struct {
	ID         string
	MovementID string
	LotID      string
	Quantity   decimal.Decimal // siempre positiva
	UnitCost   decimal.Decimal // costo del lote en el momento del consumo
}
