package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
)

// Event types published after order changes.
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event notifies downstream consumers (fulfilment, manager alerts) of an
// order change. It carries no customer contact data.
type Event struct {
	Type        string             `json:"type"`
	OrderID     int64              `json:"orderId"`
	Status      models.OrderStatus `json:"status"`
	Previous    models.OrderStatus `json:"previous,omitempty"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	ItemCount   int                `json:"itemCount"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// Publisher delivers order events. *messaging.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

func newEvent(eventType string, order models.Order, previous models.OrderStatus, at time.Time) Event {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return Event{
		Type:        eventType,
		OrderID:     order.ID,
		Status:      order.Status,
		Previous:    previous,
		TotalAmount: order.TotalAmount,
		ItemCount:   count,
		OccurredAt:  at,
	}
}
