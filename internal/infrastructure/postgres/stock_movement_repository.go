package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
// El orden cronológico lo da la columna seq (BIGSERIAL), no created_at.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento de stock y carga el seq asignado.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, variant_id, change_amount, previous_stock, new_stock, reason, detail, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.VariantID, m.ChangeAmount, m.PreviousStock, m.NewStock,
		string(m.Reason), m.Detail, m.ActorID, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByVariant lista movimientos de la variante del más reciente al más antiguo.
// Pagina por clave (seq < beforeSeq): una inserción concurrente no desplaza la ventana.
func (r *StockMovementRepo) ListByVariant(ctx context.Context, variantID string, beforeSeq int64, limit int) ([]*entity.StockMovement, error) {
	limit, _ = clampPage(limit, 0)
	query := `
		SELECT seq, id, variant_id, change_amount, previous_stock, new_stock, reason, detail, actor_id, created_at
		FROM stock_movements
		WHERE variant_id = $1 AND ($2::bigint = 0 OR seq < $2)
		ORDER BY seq DESC LIMIT $3`
	rows, err := r.q.Query(ctx, query, variantID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var reason string
		if err := rows.Scan(
			&m.Seq, &m.ID, &m.VariantID, &m.ChangeAmount, &m.PreviousStock, &m.NewStock,
			&reason, &m.Detail, &m.ActorID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Reason = entity.MovementReason(reason)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumByVariant suma change_amount de todos los movimientos de la variante.
func (r *StockMovementRepo) SumByVariant(ctx context.Context, variantID string) (int, error) {
	var sum int
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(change_amount), 0) FROM stock_movements WHERE variant_id = $1`, variantID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum stock movements: %w", err)
	}
	return sum, nil
}
