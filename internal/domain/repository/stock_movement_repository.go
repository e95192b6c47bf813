package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// StockMovementRepository es el puerto del ledger append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByVariant devuelve movimientos del más reciente al más antiguo con Seq < beforeSeq.
	// beforeSeq = 0 empieza por el más reciente.
	ListByVariant(ctx context.Context, variantID string, beforeSeq int64, limit int) ([]*entity.StockMovement, error)
	// SumByVariant suma change_amount de todos los movimientos de la variante.
	SumByVariant(ctx context.Context, variantID string) (int, error)
}
