package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidLinkage         = errors.New("vínculo de traslado inválido")
	ErrConcurrentModification = errors.New("conflicto de concurrencia")
	ErrConstraintViolation    = errors.New("operación rechazada por restricción de integridad")
)

// InsufficientStockError detalla un faltante de stock: en qué ubicación,
// cuánto hay disponible y cuánto se solicitó. Envuelve ErrInsufficientStock
// para que errors.Is siga funcionando en los handlers.
type InsufficientStockError struct {
	LocationCode string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s: disponible %s, solicitado %s",
		e.LocationCode, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
