package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusTransitionRequest body para POST /api/orders/:id/transitions.
type StatusTransitionRequest struct {
	Status string `json:"status"`
}

// SetTrackingRequest body para PUT /api/orders/:id/tracking.
type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	CourierName    string `json:"courier_name"`
	Notes          string `json:"notes,omitempty"`
}

// OrderLineResponse línea del pedido.
type OrderLineResponse struct {
	ID          string          `json:"id"`
	VariantID   *string         `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ProductName string          `json:"product_name"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	UserID         *string             `json:"user_id"`
	ContactEmail   *string             `json:"contact_email,omitempty"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Currency       string              `json:"currency"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	CourierName    string              `json:"courier_name,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	Lines          []OrderLineResponse `json:"lines"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
