package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la devolución.
const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusReceived  = "received"
	ReturnStatusRefunded  = "refunded"
)

// Return es la solicitud de devolución de un pedido entregado (una por pedido).
type Return struct {
	ID           string
	OrderID      string
	UserID       string
	Reason       string
	Status       string
	RefundAmount decimal.Decimal
	AdminNotes   string
	RestockedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
