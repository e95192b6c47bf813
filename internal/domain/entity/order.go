package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pedido.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusPacked    = "packed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusReturned  = "returned"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
)

// Order es un pedido creado en checkout; después solo lo muta el OrderStateMachine.
type Order struct {
	ID             string
	Status         string
	UserID         *string // nil = compra como invitado
	ContactEmail   *string
	TotalAmount    decimal.Decimal
	Currency       string
	TrackingNumber string
	CourierName    string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []OrderLine
}

// OwnedBy informa si el pedido pertenece al usuario.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}

// OrderLine es una línea producto/variante/cantidad del pedido.
type OrderLine struct {
	ID                  string
	OrderID             string
	VariantID           *string // nil si la variante se eliminó después de la compra
	Quantity            int
	UnitPrice           decimal.Decimal
	ProductNameSnapshot string
}
