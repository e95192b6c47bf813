package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia de pedidos. Los pedidos se crean en
// checkout (fuera de este servicio) y aquí solo se leen y cambian de estado.
// GetByID y GetForUpdate devuelven (nil, nil) si el pedido no existe; ambos cargan las líneas.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// UpdateStatus es compare-and-swap: devuelve domain.ErrConflict si el estado ya no es expected.
	UpdateStatus(ctx context.Context, id, expected, next string, at time.Time) error
	UpdateTracking(ctx context.Context, order *entity.Order) error
}
