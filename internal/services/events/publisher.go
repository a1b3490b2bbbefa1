package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPPublisher announces batch lifecycle events on a fanout exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	logger   *zap.Logger
	exchange string
}

func NewAMQPPublisher(rabbitmqURL, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		logger:   logger,
		exchange: exchange,
	}, nil
}

// Publish sends event to the exchange, routed by its type.
func (p *AMQPPublisher) Publish(ctx context.Context, event models.BatchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(event, time.Now())
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("Event published",
		zap.String("type", event.Type),
		zap.String("batch_id", event.BatchID))
	return nil
}

func newPublishing(event models.BatchEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.BatchID + ":" + event.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}, nil
}

// HealthCheck reports whether the broker connection is usable.
func (p *AMQPPublisher) HealthCheck() string {
	if p.conn == nil || p.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if p.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
