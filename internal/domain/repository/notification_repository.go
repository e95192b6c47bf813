package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// NotificationRepository persiste notificaciones in-app para que la superficie de usuario las lea.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.NotificationIntent) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.NotificationIntent, error)
}
