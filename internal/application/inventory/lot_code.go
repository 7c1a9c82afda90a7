package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// existsFn consulta si un código de lote ya está en uso (dentro de la tx).
type existsFn func(ctx context.Context, code string) (bool, error)

// generateLotCode arma un código legible SKU-aammddHHMM (hora del
// movimiento). Ante colisión, misma SKU en el mismo minuto, agrega sufijos
// -A, -B… y como último recurso un fragmento de UUID.
func generateLotCode(ctx context.Context, prefix, sku string, t time.Time, exists existsFn) (string, error) {
	base := sku + "-" + t.Format("0601021504")
	if prefix != "" {
		base = prefix + "-" + base
	}
	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	for c := 'A'; c <= 'Z'; c++ {
		code := fmt.Sprintf("%s-%c", base, c)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return base + "-" + uuid.New().String()[:8], nil
}
