package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `variant_id, stock, reserved, status, updated_at`

// Get obtiene el registro de stock de una variante; (nil, nil) si no existe.
func (r *StockRepo) Get(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE variant_id = $1`
	return r.scanOne(ctx, "get stock record", query, variantID)
}

// GetForUpdate obtiene el registro y bloquea la fila hasta el fin de la tx (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE variant_id = $1 FOR UPDATE`
	return r.scanOne(ctx, "get stock record for update", query, variantID)
}

func (r *StockRepo) scanOne(ctx context.Context, op, query, variantID string) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, variantID).Scan(&s.VariantID, &s.Stock, &s.Reserved, &s.Status, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}

// Create aprovisiona la variante. Duplicado → domain.ErrConflict.
func (r *StockRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (variant_id, stock, reserved, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, record.VariantID, record.Stock, record.Reserved, record.Status, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create stock record: %w", err)
	}
	return nil
}

// Update escribe stock y estado. El CHECK (stock >= 0) de la tabla respalda la validación del ledger.
func (r *StockRepo) Update(ctx context.Context, record *entity.StockRecord) error {
	query := `
		UPDATE stock_records SET stock = $2, reserved = $3, status = $4, updated_at = $5
		WHERE variant_id = $1`
	tag, err := r.q.Exec(ctx, query, record.VariantID, record.Stock, record.Reserved, record.Status, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("variant", record.VariantID)
	}
	return nil
}
