// Package memory implementa los puertos de persistencia en memoria.
// Las transacciones se serializan con un mutex y trabajan sobre una copia del estado
// que solo se publica en el commit, así un error descarta todas las escrituras.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

type state struct {
	stock         map[string]entity.StockRecord
	movements     []entity.StockMovement // orden de inserción = orden cronológico
	orders        map[string]entity.Order
	returns       map[string]entity.Return
	returnByOrder map[string]string
	notifications []entity.NotificationIntent
}

func newState() *state {
	return &state{
		stock:         map[string]entity.StockRecord{},
		orders:        map[string]entity.Order{},
		returns:       map[string]entity.Return{},
		returnByOrder: map[string]string{},
	}
}

func (s *state) clone() *state {
	orders := make(map[string]entity.Order, len(s.orders))
	for id, o := range s.orders {
		orders[id] = copyOrder(o)
	}
	return &state{
		stock:         maps.Clone(s.stock),
		movements:     slices.Clone(s.movements),
		orders:        orders,
		returns:       maps.Clone(s.returns),
		returnByOrder: maps.Clone(s.returnByOrder),
		notifications: slices.Clone(s.notifications),
	}
}

// Store guarda el estado completo y actúa como TxRunner.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Run ejecuta fn sobre una copia del estado; si fn no falla, la copia pasa a ser el estado.
func (s *Store) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	v := view{do: func(f func(*state) error) error { return f(staged) }}
	if err := fn(reposFor(v)); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Repos devuelve repositorios fuera de transacción; cada llamada es atómica por sí sola.
func (s *Store) Repos() ports.TxRepos {
	return reposFor(s.view())
}

// Notifications devuelve el repositorio de notificaciones in-app.
func (s *Store) Notifications() *NotificationRepo {
	return &NotificationRepo{v: s.view()}
}

// SeedStock inserta o reemplaza un StockRecord sin registrar movimiento (aprovisionamiento externo).
func (s *Store) SeedStock(rec entity.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Status == "" {
		rec.Status = entity.VariantStatusActive
	}
	s.state.stock[rec.VariantID] = rec
}

// SeedOrder inserta o reemplaza un pedido (el checkout vive fuera de este servicio).
func (s *Store) SeedOrder(o entity.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.orders[o.ID] = copyOrder(o)
}

func (s *Store) view() view {
	return view{do: func(f func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return f(s.state)
	}}
}

type view struct {
	do func(func(*state) error) error
}

func reposFor(v view) ports.TxRepos {
	return ports.TxRepos{
		Stock:     &StockRepo{v: v},
		Movements: &MovementRepo{v: v},
		Orders:    &OrderRepo{v: v},
		Returns:   &ReturnRepo{v: v},
	}
}

func copyOrder(o entity.Order) entity.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}
