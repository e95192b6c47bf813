package ports

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// NotificationSink recibe notificaciones in-app. La entrega no es observada por el core.
type NotificationSink interface {
	Deliver(ctx context.Context, n *entity.NotificationIntent) error
}

// EmailSender envía el correo de pedido enviado.
type EmailSender interface {
	Send(ctx context.Context, email *entity.EmailIntent) error
}
