package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.connectwisedev.com/storefront-service/pkg/orders"
)

// Subscribe binds a temporary queue to routingKey and calls handler for
// each decoded event until ctx is done. Handler errors are logged.
func Subscribe(ctx context.Context, ch *amqp.Channel, routingKey string, handler func(orders.Event) error) error {
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("could not declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("could not bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("could not start consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				var event orders.Event
				if err := json.Unmarshal(d.Body, &event); err != nil {
					log.Printf("Error decoding order event: %v", err)
					continue
				}
				if err := handler(event); err != nil {
					log.Printf("Error handling %s for order %d: %v", event.Type, event.OrderID, err)
				}
			}
		}
	}()

	return nil
}
