// Package notification traduce cambios de estado de pedidos y devoluciones en
// notificaciones in-app y, para pedidos enviados, en un correo.
package notification

import (
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// EmailTemplateOrderShipped identifica la plantilla del correo de envío.
const EmailTemplateOrderShipped = "order_shipped"

type template struct {
	title   string
	message string
}

var orderTemplates = map[string]template{
	entity.OrderStatusShipped:   {"Order Shipped", "Your order #%s is on its way."},
	entity.OrderStatusDelivered: {"Order Delivered", "Your order #%s has been delivered."},
	entity.OrderStatusReturned:  {"Order Returned", "We received the items returned from order #%s."},
	entity.OrderStatusRefunded:  {"Order Refunded", "The refund for order #%s has been issued."},
	entity.OrderStatusCancelled: {"Order Cancelled", "Your order #%s has been cancelled."},
}

var defaultOrderTemplate = template{"Order Update", "Your order #%s is now %s."}

var returnTemplates = map[string]template{
	entity.ReturnStatusRequested: {"Return Requested", "We received your return request for order #%s."},
	entity.ReturnStatusApproved:  {"Return Approved", "Your return for order #%s was approved. Please send the items back."},
	entity.ReturnStatusRejected:  {"Return Rejected", "Your return for order #%s was rejected."},
	entity.ReturnStatusReceived:  {"Return Received", "We received the items from order #%s."},
	entity.ReturnStatusRefunded:  {"Refund Issued", "The refund for your return on order #%s has been issued."},
}

// Emitter construye las intenciones de notificación. Es determinista salvo por ID y CreatedAt.
type Emitter struct {
	clock func() time.Time
	newID func() string
}

// NewEmitter construye el emisor. clock nil usa time.Now.
func NewEmitter(clock func() time.Time) *Emitter {
	if clock == nil {
		clock = time.Now
	}
	return &Emitter{clock: clock, newID: func() string { return uuid.New().String() }}
}

// ForOrderStatus devuelve la notificación in-app (nil si el pedido es de invitado)
// y el correo (solo para shipped con email de contacto).
func (e *Emitter) ForOrderStatus(order *entity.Order, status string) (*entity.NotificationIntent, *entity.EmailIntent) {
	var intent *entity.NotificationIntent
	if order.UserID != nil {
		tpl, ok := orderTemplates[status]
		message := fmt.Sprintf(defaultOrderTemplate.message, order.ID, status)
		if ok {
			message = fmt.Sprintf(tpl.message, order.ID)
		} else {
			tpl = defaultOrderTemplate
		}

		metadata := map[string]any{"order_id": order.ID, "status": status}
		if order.TrackingNumber != "" {
			metadata["tracking_number"] = order.TrackingNumber
		}
		if order.CourierName != "" {
			metadata["courier_name"] = order.CourierName
		}
		userID := *order.UserID
		intent = &entity.NotificationIntent{
			ID:        e.newID(),
			UserID:    &userID,
			Title:     tpl.title,
			Message:   message,
			Type:      entity.NotificationTypeOrder,
			Metadata:  metadata,
			CreatedAt: e.clock(),
		}
	}

	var email *entity.EmailIntent
	if status == entity.OrderStatusShipped && order.ContactEmail != nil && *order.ContactEmail != "" {
		email = &entity.EmailIntent{
			To:       *order.ContactEmail,
			Subject:  fmt.Sprintf("Your order #%s has shipped", order.ID),
			Body:     shippedBody(order),
			OrderID:  order.ID,
			Template: EmailTemplateOrderShipped,
		}
	}
	return intent, email
}

// ForReturnStatus devuelve la notificación in-app del cambio de estado de la devolución.
func (e *Emitter) ForReturnStatus(ret *entity.Return, status, notes string) *entity.NotificationIntent {
	tpl, ok := returnTemplates[status]
	if !ok {
		tpl = template{"Return Update", "Your return for order #%s was updated."}
	}
	message := fmt.Sprintf(tpl.message, ret.OrderID)
	if notes != "" {
		message += " Notes: " + notes
	}
	userID := ret.UserID
	return &entity.NotificationIntent{
		ID:      e.newID(),
		UserID:  &userID,
		Title:   tpl.title,
		Message: message,
		Type:    entity.NotificationTypeReturn,
		Metadata: map[string]any{
			"order_id":  ret.OrderID,
			"return_id": ret.ID,
			"status":    status,
			"notes":     notes,
		},
		CreatedAt: e.clock(),
	}
}

// shippedBody arma el HTML del correo; guía y courier los escribe el personal, se escapan.
func shippedBody(order *entity.Order) string {
	body := fmt.Sprintf("<p>Good news! Your order <b>#%s</b> has shipped.</p>", html.EscapeString(order.ID))
	if order.TrackingNumber != "" {
		courier := order.CourierName
		if courier == "" {
			courier = "the courier"
		}
		body += fmt.Sprintf("<p>Tracking number: <b>%s</b> (%s).</p>",
			html.EscapeString(order.TrackingNumber), html.EscapeString(courier))
	}
	return body
}
