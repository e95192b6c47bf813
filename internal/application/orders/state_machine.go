// Package orders aplica las transiciones de estado del pedido y sus efectos:
// reversión de stock al cancelar, notificación y evento de dominio.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/notification"
	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/fulfillment"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

// Deps dependencias del OrderStateMachine. Notifier, Events, Slips, Logger y Clock son opcionales.
type Deps struct {
	Tx       ports.TxRunner
	Orders   repository.OrderRepository
	Ledger   *inventory.StockLedger
	Notifier *notification.Notifier
	Events   ports.EventPublisher
	Slips    ports.PackingSlipGenerator
	Logger   *logger.Logger
	Clock    func() time.Time
}

// OrderStateMachine es el único escritor del estado y del seguimiento de un pedido.
type OrderStateMachine struct {
	tx       ports.TxRunner
	orders   repository.OrderRepository
	ledger   *inventory.StockLedger
	notifier *notification.Notifier
	events   ports.EventPublisher
	slips    ports.PackingSlipGenerator
	log      *logger.Logger
	clock    func() time.Time
}

// NewOrderStateMachine construye la máquina de estados.
func NewOrderStateMachine(deps Deps) (*OrderStateMachine, error) {
	if deps.Tx == nil || deps.Orders == nil {
		return nil, errors.New("order state machine: tx runner and order repository are required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("order state machine: stock ledger is required")
	}
	m := &OrderStateMachine{
		tx:       deps.Tx,
		orders:   deps.Orders,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		events:   deps.Events,
		slips:    deps.Slips,
		log:      deps.Logger,
		clock:    deps.Clock,
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	m.log = m.log.Component("order_state_machine")
	if m.notifier == nil {
		m.notifier = notification.NewNotifier(nil, nil, nil, m.log)
	}
	if m.events == nil {
		m.events = ports.NopPublisher{}
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	return m, nil
}

// TransitionInput solicitud de cambio de estado. ActorID nil = sistema (p. ej. ReturnWorkflow).
type TransitionInput struct {
	OrderID string
	Target  string
	ActorID *string
}

// TrackingInput datos de seguimiento del envío.
type TrackingInput struct {
	OrderID        string
	TrackingNumber string
	CourierName    string
	Notes          string
}

// Transition valida y aplica el cambio de estado en una transacción. Si el destino es
// cancelled, revierte el stock de cada línea antes de persistir el estado; si alguna
// reversión falla no se escribe nada. Repetir el estado actual devuelve el pedido sin efectos.
func (m *OrderStateMachine) Transition(ctx context.Context, in TransitionInput) (*entity.Order, error) {
	if in.OrderID == "" || !fulfillment.IsOrderStatus(in.Target) {
		return nil, domain.ErrInvalidInput
	}

	var (
		order    *entity.Order
		previous string
		changes  []*inventory.StockChange
		noop     bool
	)
	now := m.clock()
	err := m.tx.Run(ctx, func(repos ports.TxRepos) error {
		changes, noop = nil, false

		o, err := repos.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NewNotFound("order", in.OrderID)
		}
		order, previous = o, o.Status

		if o.Status == in.Target && fulfillment.RepeatableOrderTarget(o.Status) {
			noop = true
			return nil
		}
		if !fulfillment.CanTransitionOrder(o.Status, in.Target) {
			return &domain.IllegalTransitionError{Entity: "order", From: o.Status, To: in.Target}
		}

		switch in.Target {
		case entity.OrderStatusReturned:
			// delivered → returned solo mediante una devolución aprobada
			ret, err := repos.Returns.GetByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			if ret == nil || (ret.Status != entity.ReturnStatusApproved && ret.Status != entity.ReturnStatusReceived) {
				return &domain.IllegalTransitionError{Entity: "order", From: o.Status, To: in.Target}
			}
		case entity.OrderStatusCancelled:
			changes, err = m.reverseLines(ctx, repos, o, now)
			if err != nil {
				return err
			}
		}

		if err := repos.Orders.UpdateStatus(ctx, o.ID, previous, in.Target, now); err != nil {
			return err
		}
		o.Status = in.Target
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, domain.NewStorageError("transition order", err)
	}
	if noop {
		return order, nil
	}

	m.log.Info().
		Str("order_id", order.ID).
		Str("from", previous).
		Str("to", order.Status).
		Int("stock_reversals", len(changes)).
		Msg("estado de pedido actualizado")

	m.ledger.Announce(ctx, changes...)
	m.notifier.OrderStatusChanged(ctx, order, order.Status)
	m.publish(ctx, order, previous, in.ActorID)
	return order, nil
}

// reverseLines devuelve al stock la cantidad de cada línea con variante, en orden.
func (m *OrderStateMachine) reverseLines(ctx context.Context, repos ports.TxRepos, o *entity.Order, now time.Time) ([]*inventory.StockChange, error) {
	detail := fmt.Sprintf("Order #%s Cancelled", o.ID)
	changes := make([]*inventory.StockChange, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.VariantID == nil || line.Quantity <= 0 {
			continue
		}
		change, err := m.ledger.ApplyDeltaInTx(ctx, repos, inventory.AdjustInput{
			VariantID: *line.VariantID,
			Delta:     line.Quantity,
			Reason:    entity.ReasonOrderCancelled,
			Detail:    detail,
		}, now)
		if err != nil {
			m.log.Error().Err(err).
				Str("order_id", o.ID).
				Str("line_id", line.ID).
				Str("variant_id", *line.VariantID).
				Int("quantity", line.Quantity).
				Msg("reversión de stock fallida; cancelación abortada, requiere conciliación manual")
			return nil, fmt.Errorf("reverse stock for line %s: %w", line.ID, err)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// SetTracking guarda número de guía, transportadora y notas. No cambia el estado.
func (m *OrderStateMachine) SetTracking(ctx context.Context, in TrackingInput) (*entity.Order, error) {
	if in.OrderID == "" {
		return nil, domain.ErrInvalidInput
	}

	var order *entity.Order
	err := m.tx.Run(ctx, func(repos ports.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NewNotFound("order", in.OrderID)
		}
		if fulfillment.IsTerminalOrderStatus(o.Status) {
			return fmt.Errorf("%w: order %s is %s", domain.ErrIllegalTransition, o.ID, o.Status)
		}
		o.TrackingNumber = strings.TrimSpace(in.TrackingNumber)
		o.CourierName = strings.TrimSpace(in.CourierName)
		o.Notes = in.Notes
		o.UpdatedAt = m.clock()
		order = o
		return repos.Orders.UpdateTracking(ctx, o)
	})
	if err != nil {
		return nil, domain.NewStorageError("set order tracking", err)
	}
	m.log.Info().Str("order_id", order.ID).Str("tracking_number", order.TrackingNumber).Msg("seguimiento actualizado")
	return order, nil
}

// Get devuelve el pedido con sus líneas.
func (m *OrderStateMachine) Get(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.NewStorageError("get order", err)
	}
	if o == nil {
		return nil, domain.NewNotFound("order", orderID)
	}
	return o, nil
}

// PackingSlip genera el PDF de la hoja de empaque. Solo para pedidos por despachar o despachados.
func (m *OrderStateMachine) PackingSlip(ctx context.Context, orderID string) ([]byte, error) {
	if m.slips == nil {
		return nil, errors.New("packing slip generator not configured")
	}
	o, err := m.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case entity.OrderStatusPaid, entity.OrderStatusPacked, entity.OrderStatusShipped:
	default:
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidInput, o.ID, o.Status)
	}
	return m.slips.GeneratePackingSlip(ctx, o)
}

func (m *OrderStateMachine) publish(ctx context.Context, o *entity.Order, previous string, actorID *string) {
	err := m.events.Publish(ctx, ports.DomainEvent{
		Type:           ports.EventOrderStatusChanged,
		AggregateID:    o.ID,
		PreviousStatus: previous,
		CurrentStatus:  o.Status,
		ActorID:        actorID,
		OccurredAt:     o.UpdatedAt,
		Metadata: map[string]any{
			"total_amount": o.TotalAmount.String(),
			"currency":     o.Currency,
		},
	})
	if err != nil {
		m.log.Warn().Err(err).Str("order_id", o.ID).Msg("no se pudo publicar order.status_changed")
	}
}
