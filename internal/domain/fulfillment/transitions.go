// Package fulfillment contiene las tablas de transición del pedido y de la devolución.
// No tiene dependencias de infraestructura.
package fulfillment

import (
	"slices"
	"time"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// OrderTransitions: estado origen → estados destino permitidos.
var OrderTransitions = map[string][]string{
	entity.OrderStatusPending:   {entity.OrderStatusPaid, entity.OrderStatusCancelled},
	entity.OrderStatusPaid:      {entity.OrderStatusPacked, entity.OrderStatusCancelled},
	entity.OrderStatusPacked:    {entity.OrderStatusShipped},
	entity.OrderStatusShipped:   {entity.OrderStatusDelivered},
	entity.OrderStatusDelivered: {entity.OrderStatusReturned},
	entity.OrderStatusReturned:  {entity.OrderStatusRefunded},
	entity.OrderStatusCancelled: {},
	entity.OrderStatusRefunded:  {},
}

// ReturnTransitions: estado origen → estados destino permitidos.
var ReturnTransitions = map[string][]string{
	entity.ReturnStatusRequested: {entity.ReturnStatusApproved, entity.ReturnStatusRejected},
	entity.ReturnStatusApproved:  {entity.ReturnStatusReceived},
	entity.ReturnStatusReceived:  {entity.ReturnStatusRefunded},
	entity.ReturnStatusRejected:  {},
	entity.ReturnStatusRefunded:  {},
}

// IsOrderStatus informa si s es un estado de pedido conocido.
func IsOrderStatus(s string) bool {
	_, ok := OrderTransitions[s]
	return ok
}

// IsReturnStatus informa si s es un estado de devolución conocido.
func IsReturnStatus(s string) bool {
	_, ok := ReturnTransitions[s]
	return ok
}

// CanTransitionOrder no trata from == to como transición.
func CanTransitionOrder(from, to string) bool {
	return slices.Contains(OrderTransitions[from], to)
}

// CanTransitionReturn no trata from == to como transición.
func CanTransitionReturn(from, to string) bool {
	return slices.Contains(ReturnTransitions[from], to)
}

// AllowedOrderTargets devuelve una copia de los destinos permitidos.
func AllowedOrderTargets(from string) []string {
	return slices.Clone(OrderTransitions[from])
}

// AllowedReturnTargets devuelve una copia de los destinos permitidos.
func AllowedReturnTargets(from string) []string {
	return slices.Clone(ReturnTransitions[from])
}

// IsTerminalOrderStatus: cancelled y refunded no admiten más transiciones.
// delivered no es terminal porque admite una devolución.
func IsTerminalOrderStatus(s string) bool {
	return IsOrderStatus(s) && len(OrderTransitions[s]) == 0
}

// RepeatableOrderTarget informa si pedir de nuevo el estado actual es un no-op.
// Aplica a los estados finales del flujo (delivered, returned y los terminales) para
// tolerar reintentos; en el resto, from == to es una transición ilegal.
func RepeatableOrderTarget(s string) bool {
	return IsTerminalOrderStatus(s) || s == entity.OrderStatusDelivered || s == entity.OrderStatusReturned
}

// IsTerminalReturnStatus: rejected y refunded.
func IsTerminalReturnStatus(s string) bool {
	return IsReturnStatus(s) && len(ReturnTransitions[s]) == 0
}

// ReturnCutoff es el último instante en que se acepta una devolución.
// Se mide desde la creación del pedido: no se guarda fecha de entrega.
func ReturnCutoff(orderCreatedAt time.Time, windowDays int) time.Time {
	return orderCreatedAt.AddDate(0, 0, windowDays)
}

// WithinReturnWindow informa si now no supera el corte.
func WithinReturnWindow(orderCreatedAt, now time.Time, windowDays int) bool {
	return !now.After(ReturnCutoff(orderCreatedAt, windowDays))
}
