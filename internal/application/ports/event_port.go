package ports

import (
	"context"
	"time"
)

// Tipos de eventos de dominio publicados tras cada commit.
const (
	EventOrderStatusChanged  = "order.status_changed"
	EventReturnStatusChanged = "return.status_changed"
	EventStockAdjusted       = "stock.adjusted"
)

// DomainEvent es el sobre publicado a consumidores externos (pagos, analítica).
type DomainEvent struct {
	Type           string         `json:"type"`
	AggregateID    string         `json:"aggregate_id"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	CurrentStatus  string         `json:"current_status,omitempty"`
	ActorID        *string        `json:"actor_id,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EventPublisher publica eventos de dominio. Los fallos se registran, nunca revierten el cambio.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// NopPublisher descarta los eventos (sin brokers configurados).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, DomainEvent) error { return nil }
