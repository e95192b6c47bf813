package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e ports.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func newLedger(t *testing.T, store *memory.Store, events ports.EventPublisher) *inventory.StockLedger {
	t.Helper()
	repos := store.Repos()
	l, err := inventory.NewStockLedger(inventory.Deps{
		Tx:              store,
		Stock:           repos.Stock,
		Movements:       repos.Movements,
		Events:          events,
		HistoryMaxLimit: 5,
		Clock:           func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return l
}

func collect(t *testing.T, l *inventory.StockLedger, variantID string, limit int) []*entity.StockMovement {
	t.Helper()
	var out []*entity.StockMovement
	for m, err := range l.History(context.Background(), variantID, limit) {
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestApplyDelta_VentaYRechazoPorStockInsuficiente(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 10})
	l := newLedger(t, store, nil)

	change, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: -3, Reason: entity.ReasonSale})
	require.NoError(t, err)
	assert.Equal(t, 10, change.PreviousStock)
	assert.Equal(t, 7, change.NewStock)

	_, err = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: -10, Reason: entity.ReasonSale})
	var stockErr *domain.InvalidStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.Stock)
	assert.Contains(t, err.Error(), "insufficient stock")

	rec, err := l.Get(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Stock)

	history := collect(t, l, "V1", 10)
	require.Len(t, history, 1)
	assert.Equal(t, -3, history[0].ChangeAmount)
	assert.Equal(t, 10, history[0].PreviousStock)
	assert.Equal(t, 7, history[0].NewStock)
	assert.Nil(t, history[0].ActorID)
}

func TestApplyDelta_ConcurrentesSobreMismaVariante(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 7})
	l := newLedger(t, store, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: -5, Reason: entity.ReasonSale})
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvalidStock):
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	rec, _ := l.Get(ctx, "V1")
	assert.Equal(t, 2, rec.Stock)
	assert.Len(t, collect(t, l, "V1", 5), 1)
}

func TestLedger_SumaDeMovimientosReconstruyeStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := newLedger(t, store, nil)
	actor := "staff-1"

	_, err := l.Provision(ctx, "V1", 4, &actor)
	require.NoError(t, err)
	for _, d := range []int{5, -2, -7, 3} {
		_, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: d, Reason: entity.ReasonManualAdjustment, ActorID: &actor})
		require.NoError(t, err)
	}
	// rechazado: no debe dejar rastro
	_, err = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: -50, Reason: entity.ReasonSale})
	require.ErrorIs(t, err, domain.ErrInvalidStock)

	r, err := l.Reconcile(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Stock)
	assert.Equal(t, 3, r.LedgerSum)
	assert.Zero(t, r.Drift)
}

func TestReconcile_DetectaDrift(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 9})
	l := newLedger(t, store, nil)

	r, err := l.Reconcile(context.Background(), "V1")
	require.NoError(t, err)
	assert.Equal(t, 9, r.Drift)
}

func TestApplyDelta_EntradaInvalida(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 1})
	l := newLedger(t, store, nil)

	_, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 0, Reason: entity.ReasonCorrection})
	assert.ErrorIs(t, err, domain.ErrNoChange)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 1, Reason: "lo que sea"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V404", Delta: 1, Reason: entity.ReasonRestock})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "variant", nf.Kind)
}

func TestSetAbsolute(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 8})
	l := newLedger(t, store, nil)

	change, err := l.SetAbsolute(ctx, inventory.AbsoluteInput{VariantID: "V1", NewStock: 5, Reason: entity.ReasonCorrection, Detail: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, -3, change.Movement.ChangeAmount)
	assert.Equal(t, "conteo físico", change.Movement.Detail)

	_, err = l.SetAbsolute(ctx, inventory.AbsoluteInput{VariantID: "V1", NewStock: 5, Reason: entity.ReasonCorrection})
	assert.ErrorIs(t, err, domain.ErrNoChange)

	_, err = l.SetAbsolute(ctx, inventory.AbsoluteInput{VariantID: "V1", NewStock: -1, Reason: entity.ReasonCorrection})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	assert.Len(t, collect(t, l, "V1", 10), 1)
}

func TestArchive_RechazaTagsManualesPeroNoDelSistema(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 2})
	l := newLedger(t, store, nil)

	rec, err := l.Archive(ctx, "V1")
	require.NoError(t, err)
	assert.True(t, rec.Archived())
	_, err = l.Archive(ctx, "V1")
	require.NoError(t, err)

	_, err = l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 1, Reason: entity.ReasonRestock})
	assert.ErrorIs(t, err, domain.ErrVariantArchived)

	change, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 1, Reason: entity.ReasonOrderCancelled, Detail: "Order #O1 Cancelled"})
	require.NoError(t, err)
	assert.Equal(t, 3, change.NewStock)

	_, err = l.Archive(ctx, "V404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory_RecientesPrimeroLimitadoYReiniciable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 0})
	l := newLedger(t, store, nil)
	for i := 1; i <= 7; i++ {
		_, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: i, Reason: entity.ReasonRestock})
		require.NoError(t, err)
	}

	first := collect(t, l, "V1", 3)
	require.Len(t, first, 3)
	assert.Equal(t, []int{7, 6, 5}, []int{first[0].ChangeAmount, first[1].ChangeAmount, first[2].ChangeAmount})

	again := collect(t, l, "V1", 3)
	assert.Equal(t, first, again)

	// el máximo configurado es 5
	assert.Len(t, collect(t, l, "V1", 100), 5)
	// limit < 1 se ajusta a 1
	assert.Len(t, collect(t, l, "V1", 0), 1)

	// corte temprano del consumidor
	n := 0
	for range l.History(ctx, "V1", 5) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestHistory_InsercionConcurrenteNoRepiteMovimientos(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 0})
	repos := store.Repos()
	l, err := inventory.NewStockLedger(inventory.Deps{
		Tx:              store,
		Stock:           repos.Stock,
		Movements:       repos.Movements,
		HistoryPageSize: 2,
	})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		_, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: i, Reason: entity.ReasonRestock})
		require.NoError(t, err)
	}

	var got []int
	for m, err := range l.History(ctx, "V1", 10) {
		require.NoError(t, err)
		got = append(got, m.ChangeAmount)
		// entre la primera y la segunda página entra un movimiento nuevo
		if len(got) == 2 {
			_, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 9, Reason: entity.ReasonRestock})
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []int{4, 3, 2, 1}, got)
}

func TestHistory_VarianteInexistente(t *testing.T) {
	l := newLedger(t, memory.NewStore(), nil)
	for m, err := range l.History(context.Background(), "V404", 10) {
		assert.Nil(t, m)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := newLedger(t, store, nil)

	rec, err := l.Provision(ctx, "V1", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.VariantStatusActive, rec.Status)
	assert.Empty(t, collect(t, l, "V1", 5))

	_, err = l.Provision(ctx, "V1", 3, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = l.Provision(ctx, "V2", -1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.Provision(ctx, "V3", 6, nil)
	require.NoError(t, err)
	h := collect(t, l, "V3", 5)
	require.Len(t, h, 1)
	assert.Equal(t, entity.ReasonInitialStock, h[0].Reason)
}

func TestApplyDelta_FalloDePublicacionNoRevierte(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 1})
	pub := &recordingPublisher{err: errors.New("broker caído")}
	l := newLedger(t, store, pub)

	change, err := l.ApplyDelta(ctx, inventory.AdjustInput{VariantID: "V1", Delta: 2, Reason: entity.ReasonRestock})
	require.NoError(t, err)
	assert.Equal(t, 3, change.NewStock)

	require.Len(t, pub.events, 1)
	assert.Equal(t, ports.EventStockAdjusted, pub.events[0].Type)
	assert.Equal(t, "V1", pub.events[0].AggregateID)
	assert.Equal(t, 3, pub.events[0].Metadata["new_stock"])
}
