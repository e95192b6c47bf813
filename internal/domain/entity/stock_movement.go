package entity

import "time"

// MovementReason es el tag cerrado que clasifica la causa de un movimiento de stock.
// El texto libre va en StockMovement.Detail.
type MovementReason string

// Tags de movimiento de inventario.
const (
	ReasonInitialStock     MovementReason = "initial_stock"
	ReasonManualAdjustment MovementReason = "manual_adjustment"
	ReasonRestock          MovementReason = "restock"
	ReasonCorrection       MovementReason = "correction"
	ReasonSale             MovementReason = "sale"
	ReasonOrderCancelled   MovementReason = "order_cancelled"
	ReasonReturnReceived   MovementReason = "return_received"
)

// Valid informa si el tag pertenece al conjunto cerrado.
func (r MovementReason) Valid() bool {
	switch r {
	case ReasonInitialStock, ReasonManualAdjustment, ReasonRestock, ReasonCorrection,
		ReasonSale, ReasonOrderCancelled, ReasonReturnReceived:
		return true
	}
	return false
}

// SystemTriggered indica tags emitidos por transiciones de pedido/devolución, no por personal.
func (r MovementReason) SystemTriggered() bool {
	return r == ReasonOrderCancelled || r == ReasonReturnReceived
}

// StockMovement es una entrada inmutable del ledger: un cambio atómico y firmado del stock.
// Invariante: NewStock = PreviousStock + ChangeAmount.
type StockMovement struct {
	ID            string
	Seq           int64 // orden total de inserción; lo asigna el repositorio
	VariantID     string
	ChangeAmount  int
	PreviousStock int
	NewStock      int
	Reason        MovementReason
	Detail        string
	ActorID       *string // nil = disparado por el sistema
	CreatedAt     time.Time
}
