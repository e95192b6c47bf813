package ports

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// PackingSlipGenerator genera el PDF de la hoja de empaque de un pedido.
type PackingSlipGenerator interface {
	GeneratePackingSlip(ctx context.Context, order *entity.Order) ([]byte, error)
}
