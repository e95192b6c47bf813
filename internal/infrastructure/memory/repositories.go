package memory

import (
	"context"
	"maps"
	"time"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
)

var (
	_ repository.StockRecordRepository   = (*StockRepo)(nil)
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
	_ repository.OrderRepository         = (*OrderRepo)(nil)
	_ repository.ReturnRepository        = (*ReturnRepo)(nil)
	_ repository.NotificationRepository  = (*NotificationRepo)(nil)
	_ ports.NotificationSink             = (*NotificationRepo)(nil)
)

// StockRepo implementa StockRecordRepository.
type StockRepo struct{ v view }

func (r *StockRepo) Get(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := r.v.do(func(st *state) error {
		if rec, ok := st.stock[variantID]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a Get: el mutex del Store ya serializa las transacciones.
func (r *StockRepo) GetForUpdate(ctx context.Context, variantID string) (*entity.StockRecord, error) {
	return r.Get(ctx, variantID)
}

func (r *StockRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.stock[record.VariantID]; ok {
			return domain.ErrConflict
		}
		st.stock[record.VariantID] = *record
		return nil
	})
}

func (r *StockRepo) Update(ctx context.Context, record *entity.StockRecord) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.stock[record.VariantID]; !ok {
			return domain.NewNotFound("variant", record.VariantID)
		}
		st.stock[record.VariantID] = *record
		return nil
	})
}

// MovementRepo implementa el ledger append-only.
type MovementRepo struct{ v view }

func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	return r.v.do(func(st *state) error {
		// seq = posición 1-based en el slice append-only
		m.Seq = int64(len(st.movements) + 1)
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *MovementRepo) ListByVariant(ctx context.Context, variantID string, beforeSeq int64, limit int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.v.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0 && len(out) < limit; i-- {
			m := st.movements[i]
			if m.VariantID != variantID || (beforeSeq > 0 && m.Seq >= beforeSeq) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) SumByVariant(ctx context.Context, variantID string) (int, error) {
	var sum int
	err := r.v.do(func(st *state) error {
		for _, m := range st.movements {
			if m.VariantID == variantID {
				sum += m.ChangeAmount
			}
		}
		return nil
	})
	return sum, err
}

// OrderRepo implementa OrderRepository.
type OrderRepo struct{ v view }

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.v.do(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, expected, next string, at time.Time) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NewNotFound("order", id)
		}
		if o.Status != expected {
			return domain.ErrConflict
		}
		o.Status = next
		o.UpdatedAt = at
		st.orders[id] = o
		return nil
	})
}

func (r *OrderRepo) UpdateTracking(ctx context.Context, order *entity.Order) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[order.ID]
		if !ok {
			return domain.NewNotFound("order", order.ID)
		}
		o.TrackingNumber = order.TrackingNumber
		o.CourierName = order.CourierName
		o.Notes = order.Notes
		o.UpdatedAt = order.UpdatedAt
		st.orders[order.ID] = o
		return nil
	})
}

// ReturnRepo implementa ReturnRepository con unicidad por pedido.
type ReturnRepo struct{ v view }

func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.returnByOrder[ret.OrderID]; ok {
			return domain.ErrDuplicateReturn
		}
		st.returns[ret.ID] = *ret
		st.returnByOrder[ret.OrderID] = ret.ID
		return nil
	})
}

func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	var out *entity.Return
	err := r.v.do(func(st *state) error {
		if ret, ok := st.returns[id]; ok {
			out = &ret
		}
		return nil
	})
	return out, err
}

func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.GetByID(ctx, id)
}

func (r *ReturnRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Return, error) {
	var out *entity.Return
	err := r.v.do(func(st *state) error {
		if id, ok := st.returnByOrder[orderID]; ok {
			ret := st.returns[id]
			out = &ret
		}
		return nil
	})
	return out, err
}

func (r *ReturnRepo) Update(ctx context.Context, ret *entity.Return, expectedStatus string) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.returns[ret.ID]
		if !ok {
			return domain.NewNotFound("return", ret.ID)
		}
		if cur.Status != expectedStatus {
			return domain.ErrConflict
		}
		st.returns[ret.ID] = *ret
		return nil
	})
}

// NotificationRepo guarda notificaciones in-app; también sirve como NotificationSink.
type NotificationRepo struct{ v view }

func (r *NotificationRepo) Create(ctx context.Context, n *entity.NotificationIntent) error {
	return r.v.do(func(st *state) error {
		c := *n
		c.Metadata = maps.Clone(n.Metadata)
		st.notifications = append(st.notifications, c)
		return nil
	})
}

// Deliver persiste la notificación para que el usuario la lea después.
func (r *NotificationRepo) Deliver(ctx context.Context, n *entity.NotificationIntent) error {
	return r.Create(ctx, n)
}

// ListByUser devuelve las notificaciones del usuario, más recientes primero.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.NotificationIntent, error) {
	var out []*entity.NotificationIntent
	err := r.v.do(func(st *state) error {
		skipped := 0
		for i := len(st.notifications) - 1; i >= 0 && len(out) < limit; i-- {
			n := st.notifications[i]
			if n.UserID == nil || *n.UserID != userID {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			out = append(out, &n)
		}
		return nil
	})
	return out, err
}
