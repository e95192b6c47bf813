package ports

import (
	"context"

	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Stock     repository.StockRecordRepository
	Movements repository.StockMovementRepository
	Orders    repository.OrderRepository
	Returns   repository.ReturnRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
