package inventory

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/inventory"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

// DefaultHistoryMaxLimit tope de movimientos por consulta si no se configura otro.
const DefaultHistoryMaxLimit = 200

// DefaultHistoryPageSize movimientos pedidos al repositorio por página de History.
const DefaultHistoryPageSize = 50

// Deps dependencias del StockLedger. Clock, NewID, Events y Logger son opcionales.
type Deps struct {
	Tx              ports.TxRunner
	Stock           repository.StockRecordRepository
	Movements       repository.StockMovementRepository
	Events          ports.EventPublisher
	Logger          *logger.Logger
	HistoryMaxLimit int
	HistoryPageSize int
	Clock           func() time.Time
	NewID           func() string
}

// StockLedger es el único escritor de StockRecord y StockMovement.
// Cada cambio de stock actualiza la fila y agrega un movimiento en la misma transacción.
type StockLedger struct {
	tx        ports.TxRunner
	stock     repository.StockRecordRepository
	movements repository.StockMovementRepository
	events    ports.EventPublisher
	log       *logger.Logger
	maxLimit  int
	pageSize  int
	clock     func() time.Time
	newID     func() string
}

// NewStockLedger construye el ledger.
func NewStockLedger(deps Deps) (*StockLedger, error) {
	if deps.Tx == nil {
		return nil, errors.New("stock ledger: tx runner is required")
	}
	if deps.Stock == nil || deps.Movements == nil {
		return nil, errors.New("stock ledger: stock and movement repositories are required")
	}
	l := &StockLedger{
		tx:        deps.Tx,
		stock:     deps.Stock,
		movements: deps.Movements,
		events:    deps.Events,
		log:       deps.Logger,
		maxLimit:  deps.HistoryMaxLimit,
		pageSize:  deps.HistoryPageSize,
		clock:     deps.Clock,
		newID:     deps.NewID,
	}
	if l.events == nil {
		l.events = ports.NopPublisher{}
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	l.log = l.log.Component("stock_ledger")
	if l.maxLimit <= 0 {
		l.maxLimit = DefaultHistoryMaxLimit
	}
	if l.pageSize <= 0 {
		l.pageSize = DefaultHistoryPageSize
	}
	if l.clock == nil {
		l.clock = time.Now
	}
	if l.newID == nil {
		l.newID = func() string { return uuid.New().String() }
	}
	return l, nil
}

// AdjustInput cambio de stock firmado. ActorID nil = disparado por el sistema.
type AdjustInput struct {
	VariantID string
	Delta     int
	Reason    entity.MovementReason
	Detail    string
	ActorID   *string
}

// AbsoluteInput fija el stock a un valor; el delta se calcula bajo el bloqueo de fila.
type AbsoluteInput struct {
	VariantID string
	NewStock  int
	Reason    entity.MovementReason
	Detail    string
	ActorID   *string
}

// StockChange resultado de un cambio aplicado.
type StockChange struct {
	PreviousStock int
	NewStock      int
	Movement      *entity.StockMovement
}

// Reconciliation compara el stock con la suma del ledger. Drift distinto de cero indica
// escrituras fuera del ledger (p. ej. aprovisionamiento externo sin movimiento inicial).
type Reconciliation struct {
	VariantID string
	Stock     int
	LedgerSum int
	Drift     int
}

// ApplyDelta aplica un delta en su propia transacción (SELECT FOR UPDATE + update + movimiento).
func (l *StockLedger) ApplyDelta(ctx context.Context, in AdjustInput) (*StockChange, error) {
	if err := validateAdjust(in.VariantID, in.Reason); err != nil {
		return nil, err
	}
	if in.Delta == 0 {
		return nil, domain.ErrNoChange
	}

	var change *StockChange
	err := l.tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		change, err = l.ApplyDeltaInTx(ctx, repos, in, l.clock())
		return err
	})
	if err != nil {
		return nil, domain.NewStorageError("apply stock delta", err)
	}
	l.logChange(change)
	l.Announce(ctx, change)
	return change, nil
}

// ApplyDeltaInTx aplica el delta con los repositorios de una transacción del caller
// (reversión por cancelación, reingreso de devolución). No publica eventos: el caller
// llama a Announce después del commit.
func (l *StockLedger) ApplyDeltaInTx(ctx context.Context, repos ports.TxRepos, in AdjustInput, now time.Time) (*StockChange, error) {
	if err := validateAdjust(in.VariantID, in.Reason); err != nil {
		return nil, err
	}
	if in.Delta == 0 {
		return nil, domain.ErrNoChange
	}

	// Bloquea la fila para que el chequeo de stock negativo use un valor consistente
	rec, err := repos.Stock.GetForUpdate(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NewNotFound("variant", in.VariantID)
	}
	if rec.Archived() && !in.Reason.SystemTriggered() {
		return nil, domain.ErrVariantArchived
	}

	next, err := inventory.NextStock(in.VariantID, rec.Stock, in.Delta)
	if err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:            l.newID(),
		VariantID:     in.VariantID,
		ChangeAmount:  in.Delta,
		PreviousStock: rec.Stock,
		NewStock:      next,
		Reason:        in.Reason,
		Detail:        in.Detail,
		ActorID:       in.ActorID,
		CreatedAt:     now,
	}
	rec.Stock = next
	rec.UpdatedAt = now
	if err := repos.Stock.Update(ctx, rec); err != nil {
		return nil, err
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return &StockChange{PreviousStock: mov.PreviousStock, NewStock: next, Movement: mov}, nil
}

// SetAbsolute lleva el stock a in.NewStock. Un delta cero es ErrNoChange.
func (l *StockLedger) SetAbsolute(ctx context.Context, in AbsoluteInput) (*StockChange, error) {
	if err := validateAdjust(in.VariantID, in.Reason); err != nil {
		return nil, err
	}

	var change *StockChange
	err := l.tx.Run(ctx, func(repos ports.TxRepos) error {
		rec, err := repos.Stock.GetForUpdate(ctx, in.VariantID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.NewNotFound("variant", in.VariantID)
		}
		delta, err := inventory.DeltaTo(in.VariantID, rec.Stock, in.NewStock)
		if err != nil {
			return err
		}
		change, err = l.ApplyDeltaInTx(ctx, repos, AdjustInput{
			VariantID: in.VariantID,
			Delta:     delta,
			Reason:    in.Reason,
			Detail:    in.Detail,
			ActorID:   in.ActorID,
		}, l.clock())
		return err
	})
	if err != nil {
		return nil, domain.NewStorageError("set absolute stock", err)
	}
	l.logChange(change)
	l.Announce(ctx, change)
	return change, nil
}

// History devuelve los movimientos de la variante del más reciente al más antiguo.
// La secuencia es perezosa: pagina el repositorio a medida que se consume y se detiene en limit.
// Cada range vuelve a empezar desde el movimiento más reciente.
func (l *StockLedger) History(ctx context.Context, variantID string, limit int) iter.Seq2[*entity.StockMovement, error] {
	limit = max(1, min(limit, l.maxLimit))
	return func(yield func(*entity.StockMovement, error) bool) {
		rec, err := l.stock.Get(ctx, variantID)
		if err != nil {
			yield(nil, domain.NewStorageError("get stock record", err))
			return
		}
		if rec == nil {
			yield(nil, domain.NewNotFound("variant", variantID))
			return
		}

		// Pagina por seq: lo insertado mientras se consume no repite ni salta movimientos
		var before int64
		for seen := 0; seen < limit; {
			size := min(l.pageSize, limit-seen)
			page, err := l.movements.ListByVariant(ctx, variantID, before, size)
			if err != nil {
				yield(nil, domain.NewStorageError("list stock movements", err))
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < size {
				return
			}
			seen += len(page)
			before = page[len(page)-1].Seq
		}
	}
}

// Provision crea el StockRecord de una variante nueva y, si initialStock > 0,
// registra el movimiento initial_stock para que el ledger reconstruya el stock.
func (l *StockLedger) Provision(ctx context.Context, variantID string, initialStock int, actorID *string) (*entity.StockRecord, error) {
	if variantID == "" || initialStock < 0 {
		return nil, domain.ErrInvalidInput
	}

	now := l.clock()
	rec := &entity.StockRecord{
		VariantID: variantID,
		Stock:     initialStock,
		Status:    entity.VariantStatusActive,
		UpdatedAt: now,
	}
	var mov *entity.StockMovement
	err := l.tx.Run(ctx, func(repos ports.TxRepos) error {
		if err := repos.Stock.Create(ctx, rec); err != nil {
			return err
		}
		if initialStock == 0 {
			return nil
		}
		mov = &entity.StockMovement{
			ID:            l.newID(),
			VariantID:     variantID,
			ChangeAmount:  initialStock,
			PreviousStock: 0,
			NewStock:      initialStock,
			Reason:        entity.ReasonInitialStock,
			ActorID:       actorID,
			CreatedAt:     now,
		}
		return repos.Movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, domain.NewStorageError("provision stock record", err)
	}

	l.log.Info().Str("variant_id", variantID).Int("initial_stock", initialStock).Msg("variante aprovisionada")
	if mov != nil {
		l.Announce(ctx, &StockChange{PreviousStock: 0, NewStock: initialStock, Movement: mov})
	}
	return rec, nil
}

// Archive marca la variante como archivada. Repetir la operación no es error.
func (l *StockLedger) Archive(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := l.tx.Run(ctx, func(repos ports.TxRepos) error {
		rec, err := repos.Stock.GetForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.NewNotFound("variant", variantID)
		}
		out = rec
		if rec.Archived() {
			return nil
		}
		rec.Status = entity.VariantStatusArchived
		rec.UpdatedAt = l.clock()
		return repos.Stock.Update(ctx, rec)
	})
	if err != nil {
		return nil, domain.NewStorageError("archive variant", err)
	}
	return out, nil
}

// Get devuelve el StockRecord de la variante.
func (l *StockLedger) Get(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	rec, err := l.stock.Get(ctx, variantID)
	if err != nil {
		return nil, domain.NewStorageError("get stock record", err)
	}
	if rec == nil {
		return nil, domain.NewNotFound("variant", variantID)
	}
	return rec, nil
}

// Reconcile compara el stock actual con la suma de change_amount del ledger.
func (l *StockLedger) Reconcile(ctx context.Context, variantID string) (*Reconciliation, error) {
	rec, err := l.Get(ctx, variantID)
	if err != nil {
		return nil, err
	}
	sum, err := l.movements.SumByVariant(ctx, variantID)
	if err != nil {
		return nil, domain.NewStorageError("sum stock movements", err)
	}
	r := &Reconciliation{VariantID: variantID, Stock: rec.Stock, LedgerSum: sum, Drift: rec.Stock - sum}
	if r.Drift != 0 {
		l.log.Warn().Str("variant_id", variantID).Int("stock", rec.Stock).Int("ledger_sum", sum).Msg("stock no coincide con el ledger")
	}
	return r, nil
}

// Announce publica stock.adjusted por cada cambio ya confirmado. Best-effort.
func (l *StockLedger) Announce(ctx context.Context, changes ...*StockChange) {
	for _, c := range changes {
		if c == nil || c.Movement == nil {
			continue
		}
		m := c.Movement
		err := l.events.Publish(ctx, ports.DomainEvent{
			Type:        ports.EventStockAdjusted,
			AggregateID: m.VariantID,
			ActorID:     m.ActorID,
			OccurredAt:  m.CreatedAt,
			Metadata: map[string]any{
				"movement_id":    m.ID,
				"change_amount":  m.ChangeAmount,
				"previous_stock": m.PreviousStock,
				"new_stock":      m.NewStock,
				"reason":         string(m.Reason),
			},
		})
		if err != nil {
			l.log.Warn().Err(err).Str("variant_id", m.VariantID).Msg("no se pudo publicar stock.adjusted")
		}
	}
}

func (l *StockLedger) logChange(c *StockChange) {
	m := c.Movement
	l.log.Info().
		Str("variant_id", m.VariantID).
		Int("change", m.ChangeAmount).
		Int("previous_stock", m.PreviousStock).
		Int("new_stock", m.NewStock).
		Str("reason", string(m.Reason)).
		Msg("stock ajustado")
}

func validateAdjust(variantID string, reason entity.MovementReason) error {
	if variantID == "" || !reason.Valid() {
		return domain.ErrInvalidInput
	}
	return nil
}
