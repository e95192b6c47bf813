package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia de devoluciones.
// Los Get devuelven (nil, nil) si no existe.
type ReturnRepository interface {
	// Create devuelve domain.ErrDuplicateReturn si el pedido ya tiene devolución.
	Create(ctx context.Context, ret *entity.Return) error
	GetByID(ctx context.Context, id string) (*entity.Return, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Return, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.Return, error)
	// Update es compare-and-swap sobre el estado: domain.ErrConflict si ya no es expectedStatus.
	Update(ctx context.Context, ret *entity.Return, expectedStatus string) error
}
