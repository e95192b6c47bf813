package entity

import "time"

// Estados de una variante dentro del ledger.
const (
	VariantStatusActive   = "active"
	VariantStatusArchived = "archived"
)

// StockRecord es la fila única de stock por variante. Solo la muta el StockLedger.
type StockRecord struct {
	VariantID string
	Stock     int
	Reserved  int // sin uso por las transiciones actuales
	Status    string
	UpdatedAt time.Time
}

// Archived informa si la variante fue retirada del catálogo.
func (s *StockRecord) Archived() bool {
	return s.Status == VariantStatusArchived
}
