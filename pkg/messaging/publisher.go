package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.connectwisedev.com/storefront-service/pkg/orders"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends order events to the topic exchange.
type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

// RoutingKey is the event type with the new status appended, for example
// "order.status_changed.completed". Consumers bind with "order.#".
func RoutingKey(event orders.Event) string {
	if event.Type == orders.EventStatusChanged && event.Status != "" {
		return event.Type + "." + strings.ToLower(string(event.Status))
	}
	return event.Type
}

func (p *Publisher) Publish(ctx context.Context, event orders.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal order event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}
