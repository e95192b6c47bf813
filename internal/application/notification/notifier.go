package notification

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

// Notifier entrega las intenciones del Emitter. Nunca devuelve error: el cambio de
// estado ya está confirmado y un fallo de entrega solo se registra.
type Notifier struct {
	emitter *Emitter
	sink    ports.NotificationSink
	mailer  ports.EmailSender
	log     *logger.Logger
}

// NewNotifier construye el notificador. sink y mailer pueden ser nil (canal deshabilitado).
func NewNotifier(emitter *Emitter, sink ports.NotificationSink, mailer ports.EmailSender, log *logger.Logger) *Notifier {
	if emitter == nil {
		emitter = NewEmitter(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{emitter: emitter, sink: sink, mailer: mailer, log: log.Component("notifier")}
}

// OrderStatusChanged notifica al dueño del pedido y, si corresponde, envía el correo de envío.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order *entity.Order, status string) {
	intent, email := n.emitter.ForOrderStatus(order, status)
	n.deliver(ctx, intent)
	if email == nil || n.mailer == nil {
		return
	}
	if err := n.mailer.Send(ctx, email); err != nil {
		n.log.Error().Err(err).Str("order_id", order.ID).Str("template", email.Template).Msg("no se pudo enviar el correo")
	}
}

// ReturnStatusChanged notifica al cliente el nuevo estado de su devolución.
func (n *Notifier) ReturnStatusChanged(ctx context.Context, ret *entity.Return, status, notes string) {
	n.deliver(ctx, n.emitter.ForReturnStatus(ret, status, notes))
}

func (n *Notifier) deliver(ctx context.Context, intent *entity.NotificationIntent) {
	if intent == nil || n.sink == nil {
		return
	}
	if err := n.sink.Deliver(ctx, intent); err != nil {
		n.log.Error().Err(err).Str("title", intent.Title).Interface("metadata", intent.Metadata).Msg("no se pudo entregar la notificación")
	}
}
