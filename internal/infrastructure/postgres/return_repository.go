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

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación de ReturnRepository; returns.order_id es UNIQUE.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, order_id, user_id, reason, status, refund_amount, admin_notes, restocked_at, created_at, updated_at`

// Create inserta la devolución. Violación de unicidad en order_id → domain.ErrDuplicateReturn.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	query := `
		INSERT INTO returns (` + returnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		ret.ID, ret.OrderID, ret.UserID, ret.Reason, ret.Status, ret.RefundAmount,
		ret.AdminNotes, ret.RestockedAt, ret.CreatedAt, ret.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReturn
		}
		return fmt.Errorf("create return: %w", err)
	}
	return nil
}

// GetByID obtiene la devolución; (nil, nil) si no existe.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id)
}

// GetForUpdate obtiene la devolución bloqueando la fila.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1 FOR UPDATE`, id)
}

// GetByOrderID obtiene la devolución del pedido; (nil, nil) si no tiene.
func (r *ReturnRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Return, error) {
	return r.get(ctx, `SELECT `+returnColumns+` FROM returns WHERE order_id = $1`, orderID)
}

func (r *ReturnRepo) get(ctx context.Context, query, arg string) (*entity.Return, error) {
	var ret entity.Return
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&ret.ID, &ret.OrderID, &ret.UserID, &ret.Reason, &ret.Status, &ret.RefundAmount,
		&ret.AdminNotes, &ret.RestockedAt, &ret.CreatedAt, &ret.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	return &ret, nil
}

// Update escribe la devolución si su estado sigue siendo expectedStatus.
func (r *ReturnRepo) Update(ctx context.Context, ret *entity.Return, expectedStatus string) error {
	query := `
		UPDATE returns
		SET status = $3, refund_amount = $4, admin_notes = $5, restocked_at = $6, updated_at = $7
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		ret.ID, expectedStatus, ret.Status, ret.RefundAmount, ret.AdminNotes, ret.RestockedAt, ret.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update return: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}
