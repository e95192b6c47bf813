// Package returns gestiona el ciclo de vida de la devolución de un pedido entregado.
package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/notification"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/fulfillment"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

// DefaultWindowDays días para solicitar una devolución desde la creación del pedido.
const DefaultWindowDays = 14

// Deps dependencias del ReturnWorkflow.
type Deps struct {
	Tx         ports.TxRunner
	Orders     repository.OrderRepository
	Returns    repository.ReturnRepository
	Machine    *orders.OrderStateMachine
	Ledger     *inventory.StockLedger
	Notifier   *notification.Notifier
	Events     ports.EventPublisher
	Logger     *logger.Logger
	WindowDays int
	Clock      func() time.Time
	NewID      func() string
}

// ReturnWorkflow aplica las transiciones de la devolución y arrastra el estado del pedido.
type ReturnWorkflow struct {
	tx         ports.TxRunner
	orders     repository.OrderRepository
	returns    repository.ReturnRepository
	machine    *orders.OrderStateMachine
	ledger     *inventory.StockLedger
	notifier   *notification.Notifier
	events     ports.EventPublisher
	log        *logger.Logger
	windowDays int
	clock      func() time.Time
	newID      func() string
}

// NewReturnWorkflow construye el flujo de devoluciones.
func NewReturnWorkflow(deps Deps) (*ReturnWorkflow, error) {
	if deps.Tx == nil || deps.Orders == nil || deps.Returns == nil {
		return nil, errors.New("return workflow: tx runner, order and return repositories are required")
	}
	if deps.Machine == nil || deps.Ledger == nil {
		return nil, errors.New("return workflow: order state machine and stock ledger are required")
	}
	w := &ReturnWorkflow{
		tx:         deps.Tx,
		orders:     deps.Orders,
		returns:    deps.Returns,
		machine:    deps.Machine,
		ledger:     deps.Ledger,
		notifier:   deps.Notifier,
		events:     deps.Events,
		log:        deps.Logger,
		windowDays: deps.WindowDays,
		clock:      deps.Clock,
		newID:      deps.NewID,
	}
	if w.log == nil {
		w.log = logger.Nop()
	}
	w.log = w.log.Component("return_workflow")
	if w.notifier == nil {
		w.notifier = notification.NewNotifier(nil, nil, nil, w.log)
	}
	if w.events == nil {
		w.events = ports.NopPublisher{}
	}
	if w.windowDays <= 0 {
		w.windowDays = DefaultWindowDays
	}
	if w.clock == nil {
		w.clock = time.Now
	}
	if w.newID == nil {
		w.newID = func() string { return uuid.New().String() }
	}
	return w, nil
}

// FileInput solicitud de devolución del cliente.
type FileInput struct {
	OrderID string
	UserID  string
	Reason  string
}

// TransitionInput cambio de estado hecho por el personal.
// RefundAmount solo se admite al aprobar.
type TransitionInput struct {
	ReturnID     string
	Target       string
	Notes        string
	RefundAmount *decimal.Decimal
	ActorID      *string
}

// FileReturn crea la devolución en estado requested con el total del pedido como reembolso.
func (w *ReturnWorkflow) FileReturn(ctx context.Context, in FileInput) (*entity.Return, error) {
	reason := strings.TrimSpace(in.Reason)
	if in.OrderID == "" || in.UserID == "" || reason == "" {
		return nil, domain.ErrInvalidInput
	}

	order, err := w.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, domain.NewStorageError("get order", err)
	}
	if order == nil {
		return nil, domain.NewNotFound("order", in.OrderID)
	}
	if !order.OwnedBy(in.UserID) {
		return nil, domain.ErrForbidden
	}
	if order.Status != entity.OrderStatusDelivered {
		return nil, &domain.IllegalTransitionError{Entity: "order", From: order.Status, To: entity.OrderStatusReturned}
	}
	now := w.clock()
	if !fulfillment.WithinReturnWindow(order.CreatedAt, now, w.windowDays) {
		return nil, &domain.ReturnWindowExpiredError{
			OrderID: order.ID,
			Cutoff:  fulfillment.ReturnCutoff(order.CreatedAt, w.windowDays),
		}
	}

	ret := &entity.Return{
		ID:           w.newID(),
		OrderID:      order.ID,
		UserID:       in.UserID,
		Reason:       reason,
		Status:       entity.ReturnStatusRequested,
		RefundAmount: order.TotalAmount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// La unicidad la garantiza el store (order_id único); no se consulta antes.
	if err := w.returns.Create(ctx, ret); err != nil {
		return nil, domain.NewStorageError("create return", err)
	}

	w.log.Info().Str("return_id", ret.ID).Str("order_id", order.ID).Msg("devolución solicitada")
	w.notifier.ReturnStatusChanged(ctx, ret, ret.Status, "")
	w.publish(ctx, ret, "", &in.UserID)
	return ret, nil
}

// Transition mueve la devolución. received lleva el pedido a returned y refunded a refunded;
// el paso del pedido va primero y es idempotente, así un reintento tras un fallo parcial es seguro.
func (w *ReturnWorkflow) Transition(ctx context.Context, in TransitionInput) (*entity.Return, error) {
	if in.ReturnID == "" || !fulfillment.IsReturnStatus(in.Target) {
		return nil, domain.ErrInvalidInput
	}
	if in.RefundAmount != nil && in.Target != entity.ReturnStatusApproved {
		return nil, fmt.Errorf("%w: refund amount can only be set on approval", domain.ErrInvalidInput)
	}

	ret, err := w.Get(ctx, in.ReturnID)
	if err != nil {
		return nil, err
	}
	if ret.Status == in.Target && fulfillment.IsTerminalReturnStatus(ret.Status) {
		return ret, nil
	}
	if !fulfillment.CanTransitionReturn(ret.Status, in.Target) {
		return nil, &domain.IllegalTransitionError{Entity: "return", From: ret.Status, To: in.Target}
	}

	previous := ret.Status
	switch in.Target {
	case entity.ReturnStatusApproved:
		if in.RefundAmount != nil {
			order, err := w.orders.GetByID(ctx, ret.OrderID)
			if err != nil {
				return nil, domain.NewStorageError("get order", err)
			}
			if order == nil {
				return nil, domain.NewNotFound("order", ret.OrderID)
			}
			if !in.RefundAmount.IsPositive() || in.RefundAmount.GreaterThan(order.TotalAmount) {
				return nil, fmt.Errorf("%w: refund amount must be greater than 0 and at most %s", domain.ErrInvalidInput, order.TotalAmount.String())
			}
			ret.RefundAmount = *in.RefundAmount
		}
	case entity.ReturnStatusReceived:
		if err := w.driveOrder(ctx, ret.OrderID, entity.OrderStatusReturned, in.ActorID); err != nil {
			return nil, err
		}
	case entity.ReturnStatusRefunded:
		if err := w.driveOrder(ctx, ret.OrderID, entity.OrderStatusRefunded, in.ActorID); err != nil {
			return nil, err
		}
	}

	if in.Notes != "" {
		ret.AdminNotes = in.Notes
	}
	ret.Status = in.Target
	ret.UpdatedAt = w.clock()
	if err := w.returns.Update(ctx, ret, previous); err != nil {
		return nil, domain.NewStorageError("update return", err)
	}

	w.log.Info().Str("return_id", ret.ID).Str("from", previous).Str("to", ret.Status).Msg("estado de devolución actualizado")
	w.notifier.ReturnStatusChanged(ctx, ret, ret.Status, in.Notes)
	w.publish(ctx, ret, previous, in.ActorID)
	return ret, nil
}

// driveOrder lleva el pedido al estado indicado salvo que ya esté allí.
func (w *ReturnWorkflow) driveOrder(ctx context.Context, orderID, target string, actorID *string) error {
	_, err := w.machine.Transition(ctx, orders.TransitionInput{OrderID: orderID, Target: target, ActorID: actorID})
	if err != nil {
		w.log.Error().Err(err).Str("order_id", orderID).Str("target", target).Msg("no se pudo actualizar el pedido de la devolución")
		return err
	}
	return nil
}

// Restock reingresa al inventario las unidades de una devolución recibida. Solo una vez.
func (w *ReturnWorkflow) Restock(ctx context.Context, returnID string, actorID *string) (*entity.Return, error) {
	var (
		ret     *entity.Return
		changes []*inventory.StockChange
	)
	now := w.clock()
	err := w.tx.Run(ctx, func(repos ports.TxRepos) error {
		changes = nil
		r, err := repos.Returns.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NewNotFound("return", returnID)
		}
		if r.Status != entity.ReturnStatusReceived && r.Status != entity.ReturnStatusRefunded {
			return fmt.Errorf("%w: return %s is %s", domain.ErrIllegalTransition, r.ID, r.Status)
		}
		if r.RestockedAt != nil {
			return domain.ErrAlreadyRestocked
		}

		order, err := repos.Orders.GetForUpdate(ctx, r.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.NewNotFound("order", r.OrderID)
		}
		detail := fmt.Sprintf("Return #%s restocked", r.ID)
		for _, line := range order.Lines {
			if line.VariantID == nil || line.Quantity <= 0 {
				continue
			}
			change, err := w.ledger.ApplyDeltaInTx(ctx, repos, inventory.AdjustInput{
				VariantID: *line.VariantID,
				Delta:     line.Quantity,
				Reason:    entity.ReasonReturnReceived,
				Detail:    detail,
				ActorID:   actorID,
			}, now)
			if err != nil {
				return fmt.Errorf("restock line %s: %w", line.ID, err)
			}
			changes = append(changes, change)
		}

		r.RestockedAt = &now
		r.UpdatedAt = now
		ret = r
		return repos.Returns.Update(ctx, r, r.Status)
	})
	if err != nil {
		return nil, domain.NewStorageError("restock return", err)
	}

	w.log.Info().Str("return_id", ret.ID).Int("lines", len(changes)).Msg("devolución reingresada al inventario")
	w.ledger.Announce(ctx, changes...)
	return ret, nil
}

// Get devuelve la devolución.
func (w *ReturnWorkflow) Get(ctx context.Context, returnID string) (*entity.Return, error) {
	ret, err := w.returns.GetByID(ctx, returnID)
	if err != nil {
		return nil, domain.NewStorageError("get return", err)
	}
	if ret == nil {
		return nil, domain.NewNotFound("return", returnID)
	}
	return ret, nil
}

func (w *ReturnWorkflow) publish(ctx context.Context, ret *entity.Return, previous string, actorID *string) {
	err := w.events.Publish(ctx, ports.DomainEvent{
		Type:           ports.EventReturnStatusChanged,
		AggregateID:    ret.ID,
		PreviousStatus: previous,
		CurrentStatus:  ret.Status,
		ActorID:        actorID,
		OccurredAt:     ret.UpdatedAt,
		Metadata: map[string]any{
			"order_id":      ret.OrderID,
			"refund_amount": ret.RefundAmount.String(),
		},
	})
	if err != nil {
		w.log.Warn().Err(err).Str("return_id", ret.ID).Msg("no se pudo publicar return.status_changed")
	}
}
