package returns_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/notification"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
	"github.com/jhoicas/fulfillment-api/internal/application/returns"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/memory"
)

var now = time.Date(2026, 6, 20, 15, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

type fixture struct {
	store    *memory.Store
	ledger   *inventory.StockLedger
	machine  *orders.OrderStateMachine
	workflow *returns.ReturnWorkflow
}

func newFixture(t *testing.T, windowDays int) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	clock := func() time.Time { return now }
	notifier := notification.NewNotifier(notification.NewEmitter(clock), store.Notifications(), nil, nil)

	ledger, err := inventory.NewStockLedger(inventory.Deps{Tx: store, Stock: repos.Stock, Movements: repos.Movements, Clock: clock})
	require.NoError(t, err)
	machine, err := orders.NewOrderStateMachine(orders.Deps{Tx: store, Orders: repos.Orders, Ledger: ledger, Notifier: notifier, Clock: clock})
	require.NoError(t, err)
	wf, err := returns.NewReturnWorkflow(returns.Deps{
		Tx:         store,
		Orders:     repos.Orders,
		Returns:    repos.Returns,
		Machine:    machine,
		Ledger:     ledger,
		Notifier:   notifier,
		WindowDays: windowDays,
		Clock:      clock,
	})
	require.NoError(t, err)
	return &fixture{store: store, ledger: ledger, machine: machine, workflow: wf}
}

func (f *fixture) seedDelivered(id string, age time.Duration) {
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 1})
	f.store.SeedOrder(entity.Order{
		ID:          id,
		Status:      entity.OrderStatusDelivered,
		UserID:      ptr("U1"),
		TotalAmount: decimal.NewFromInt(120),
		Currency:    "COP",
		CreatedAt:   now.Add(-age),
		Lines:       []entity.OrderLine{{ID: "L1", OrderID: id, VariantID: ptr("V1"), Quantity: 3}},
	})
}

func TestFileReturn_VentanaVencida(t *testing.T) {
	f := newFixture(t, 10)
	f.seedDelivered("O2", 15*24*time.Hour)

	_, err := f.workflow.FileReturn(context.Background(), returns.FileInput{OrderID: "O2", UserID: "U1", Reason: "talla"})
	var expired *domain.ReturnWindowExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, now.Add(-15*24*time.Hour).AddDate(0, 0, 10), expired.Cutoff)
	assert.Contains(t, err.Error(), expired.Cutoff.Format("2006-01-02"))
}

func TestFileReturn_CreaSolicitud(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	f.seedDelivered("O3", 48*time.Hour)

	ret, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: " no me quedó "})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusRequested, ret.Status)
	assert.Equal(t, "no me quedó", ret.Reason)
	assert.True(t, decimal.NewFromInt(120).Equal(ret.RefundAmount))

	_, err = f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrDuplicateReturn)

	notes, _ := f.store.Notifications().ListByUser(ctx, "U1", 10, 0)
	require.Len(t, notes, 1)
	assert.Equal(t, "Return Requested", notes[0].Title)
}

func TestFileReturn_Precondiciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	f.seedDelivered("O3", time.Hour)
	f.store.SeedOrder(entity.Order{ID: "O4", Status: entity.OrderStatusShipped, UserID: ptr("U1"), CreatedAt: now})

	_, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U2", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O4", UserID: "U1", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O404", UserID: "U1", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransition_CicloCompletoArrastraPedido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 14)
	f.seedDelivered("O3", 24*time.Hour)

	ret, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "defecto"})
	require.NoError(t, err)

	// no se puede saltar approved
	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusReceived})
	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "return", illegal.Entity)

	ret, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved, Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", ret.AdminNotes)

	// approved → approved no es un reintento válido
	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved})
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, entity.ReturnStatusApproved, illegal.From)

	ret, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusReceived})
	require.NoError(t, err)
	order, _ := f.machine.Get(ctx, "O3")
	assert.Equal(t, entity.OrderStatusReturned, order.Status)

	ret, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusRefunded})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusRefunded, ret.Status)
	order, _ = f.machine.Get(ctx, "O3")
	assert.Equal(t, entity.OrderStatusRefunded, order.Status)

	// repetir es no-op
	again, err := f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusRefunded})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusRefunded, again.Status)

	// recibir no reingresa stock automáticamente
	v1, _ := f.ledger.Get(ctx, "V1")
	assert.Equal(t, 1, v1.Stock)
}

func TestTransition_Rechazo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 14)
	f.seedDelivered("O3", time.Hour)
	ret, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "x"})
	require.NoError(t, err)

	ret, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusRejected, Notes: "usado"})
	require.NoError(t, err)
	assert.Equal(t, "usado", ret.AdminNotes)

	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	order, _ := f.machine.Get(ctx, "O3")
	assert.Equal(t, entity.OrderStatusDelivered, order.Status)
}

func TestTransition_MontoDeReembolso(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 14)
	f.seedDelivered("O3", time.Hour)
	ret, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "x"})
	require.NoError(t, err)

	tooMuch := decimal.NewFromInt(121)
	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved, RefundAmount: &tooMuch})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	zero := decimal.Zero
	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved, RefundAmount: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	partial := decimal.RequireFromString("80.50")
	ret, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusApproved, RefundAmount: &partial})
	require.NoError(t, err)
	assert.True(t, partial.Equal(ret.RefundAmount))

	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusReceived, RefundAmount: &partial})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRestock_UnaSolaVez(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 14)
	f.seedDelivered("O3", time.Hour)
	ret, err := f.workflow.FileReturn(ctx, returns.FileInput{OrderID: "O3", UserID: "U1", Reason: "x"})
	require.NoError(t, err)

	_, err = f.workflow.Restock(ctx, ret.ID, ptr("staff"))
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	for _, target := range []string{entity.ReturnStatusApproved, entity.ReturnStatusReceived} {
		_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: target})
		require.NoError(t, err)
	}

	restocked, err := f.workflow.Restock(ctx, ret.ID, ptr("staff"))
	require.NoError(t, err)
	require.NotNil(t, restocked.RestockedAt)

	v1, _ := f.ledger.Get(ctx, "V1")
	assert.Equal(t, 4, v1.Stock)

	_, err = f.workflow.Restock(ctx, ret.ID, ptr("staff"))
	assert.ErrorIs(t, err, domain.ErrAlreadyRestocked)
	v1, _ = f.ledger.Get(ctx, "V1")
	assert.Equal(t, 4, v1.Stock)

	var reasons []entity.MovementReason
	for m, err := range f.ledger.History(ctx, "V1", 10) {
		require.NoError(t, err)
		reasons = append(reasons, m.Reason)
		assert.Equal(t, "Return #"+ret.ID+" restocked", m.Detail)
	}
	assert.Equal(t, []entity.MovementReason{entity.ReasonReturnReceived}, reasons)

	// el reembolso posterior sigue funcionando
	_, err = f.workflow.Transition(ctx, returns.TransitionInput{ReturnID: ret.ID, Target: entity.ReturnStatusRefunded})
	require.NoError(t, err)
}
