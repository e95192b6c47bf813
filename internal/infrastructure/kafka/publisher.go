// Package kafka publica eventos de dominio en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// MessageWriter es la parte de *kafka.Writer que usa el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher serializa DomainEvent a JSON y lo escribe con el ID del agregado como clave,
// así los eventos de un mismo pedido/variante caen en la misma partición y conservan orden.
type Publisher struct {
	writer MessageWriter
}

// NewWriter construye el writer de kafka-go para los brokers y tópico dados.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher construye el publicador sobre un writer.
func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish escribe el evento. El error se devuelve al caller, que solo lo registra.
func (p *Publisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event %s: %w", event.Type, err)
	}
	return nil
}

// Close libera el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
