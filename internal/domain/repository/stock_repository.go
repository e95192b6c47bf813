package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// StockRecordRepository define el puerto para leer/actualizar la fila de stock por variante.
// Usado dentro de transacciones para garantizar consistencia.
// Get y GetForUpdate devuelven (nil, nil) si la variante no tiene registro.
type StockRecordRepository interface {
	Get(ctx context.Context, variantID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, variantID string) (*entity.StockRecord, error)
	// Create devuelve domain.ErrConflict si la variante ya fue aprovisionada.
	Create(ctx context.Context, record *entity.StockRecord) error
	Update(ctx context.Context, record *entity.StockRecord) error
}
