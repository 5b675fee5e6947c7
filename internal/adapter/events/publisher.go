package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/antonkh/crmcore/internal/adapter/config"
	"github.com/antonkh/crmcore/internal/core/port"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "crm.orders"

// Publisher pushes order status events to a RabbitMQ topic exchange so the
// surrounding CRM (notifications, integrations) can react to transitions.
type Publisher struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

func NewPublisher(conf *config.Events, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(conf.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

func (p *Publisher) PublishStatusChange(ctx context.Context, event port.StatusEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	routingKey := fmt.Sprintf("order.status.%s", event.To)

	err = ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    event.At,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
