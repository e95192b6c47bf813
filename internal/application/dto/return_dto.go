package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FileReturnRequest body para POST /api/orders/:id/returns (cliente).
type FileReturnRequest struct {
	Reason string `json:"reason"`
}

// ReturnTransitionRequest body para POST /api/returns/:id/transitions.
// RefundAmount solo se acepta al aprobar.
type ReturnTransitionRequest struct {
	Status       string           `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
}

// ReturnResponse salida de una devolución.
type ReturnResponse struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	UserID       string          `json:"user_id"`
	Reason       string          `json:"reason"`
	Status       string          `json:"status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	AdminNotes   string          `json:"admin_notes,omitempty"`
	RestockedAt  *time.Time      `json:"restocked_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
