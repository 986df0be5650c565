package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher defines a minimal interface for publishing domain events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]any) error
}

// RabbitPublisher publishes JSON events to a RabbitMQ topic exchange. A nil
// *RabbitPublisher is a valid no-op publisher so the server can run without
// an event bus.
type RabbitPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewRabbitPublisher creates a publisher connecting to RabbitMQ.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish wraps the payload in an event envelope and sends it to the
// exchange under the given routing key (e.g. "reporte.creado").
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload map[string]any) error {
	if p == nil {
		return nil
	}
	envelope := map[string]any{
		"event_id":    uuid.NewString(),
		"event":       routingKey,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"data":        payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close terminates the connection.
func (p *RabbitPublisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		log.Printf("close channel: %v", err)
	}
	return p.conn.Close()
}
