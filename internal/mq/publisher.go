package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/alerts"
)

// Publisher fans triggered-alert events out to a RabbitMQ topic exchange so
// external consumers (pagers, reports) can react to threshold breaches.
type Publisher struct {
	conn       *Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher creates a new alert-event publisher
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishAlertEvent publishes one triggered alert.
func (p *Publisher) PublishAlertEvent(ctx context.Context, event alerts.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published alert event",
		zap.String("routing_key", p.routingKey),
		zap.String("alert_id", event.AlertID),
		zap.String("alert_name", event.AlertName),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
