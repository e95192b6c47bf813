package dto

import "time"

// AdjustStockRequest body para POST /api/inventory/variants/:id/adjustments.
// Exactamente uno de Delta o Absolute debe venir informado.
type AdjustStockRequest struct {
	Delta    *int   `json:"delta,omitempty"`
	Absolute *int   `json:"absolute,omitempty"`
	Reason   string `json:"reason"` // manual_adjustment | restock | correction | sale | initial_stock
	Detail   string `json:"detail,omitempty"`
}

// ProvisionVariantRequest body para POST /api/inventory/variants/:id.
type ProvisionVariantRequest struct {
	InitialStock int `json:"initial_stock"`
}

// StockRecordResponse salida del registro de stock de una variante.
type StockRecordResponse struct {
	VariantID string    `json:"variant_id"`
	Stock     int       `json:"stock"`
	Reserved  int       `json:"reserved"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovementResponse una entrada del ledger.
type StockMovementResponse struct {
	ID            string    `json:"id"`
	VariantID     string    `json:"variant_id"`
	ChangeAmount  int       `json:"change_amount"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Reason        string    `json:"reason"`
	Detail        string    `json:"detail,omitempty"`
	ActorID       *string   `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockChangeResponse resultado de un ajuste aplicado.
type StockChangeResponse struct {
	PreviousStock int                   `json:"previous_stock"`
	NewStock      int                   `json:"new_stock"`
	Movement      StockMovementResponse `json:"movement"`
}

// StockHistoryResponse movimientos del más reciente al más antiguo.
type StockHistoryResponse struct {
	VariantID string                  `json:"variant_id"`
	Items     []StockMovementResponse `json:"items"`
}

// ReconciliationResponse stock frente a la suma del ledger.
type ReconciliationResponse struct {
	VariantID string `json:"variant_id"`
	Stock     int    `json:"stock"`
	LedgerSum int    `json:"ledger_sum"`
	Drift     int    `json:"drift"`
}
