package orders

import (
	"encoding/json"
	"fmt"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/store"
)

func orderFromRecord(rec store.Record) (models.Order, error) {
	id, err := rec.Int64("id")
	if err != nil {
		return models.Order{}, fmt.Errorf("order record: %w", err)
	}
	total, err := rec.Decimal("total_amount")
	if err != nil {
		return models.Order{}, fmt.Errorf("order %d: %w", id, err)
	}
	created, err := rec.Time("created_at")
	if err != nil {
		return models.Order{}, fmt.Errorf("order %d: %w", id, err)
	}
	status := models.OrderStatus(rec.String("status"))
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("order %d: unknown status %q", id, status)
	}

	raw, err := rec.JSON("items")
	if err != nil {
		return models.Order{}, fmt.Errorf("order %d: %w", id, err)
	}
	var items []models.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return models.Order{}, fmt.Errorf("order %d: failed to decode items: %w", id, err)
	}

	return models.Order{
		ID:            id,
		CustomerName:  rec.String("customer_name"),
		CustomerEmail: rec.String("customer_email"),
		CustomerPhone: rec.String("customer_phone"),
		Items:         items,
		TotalAmount:   total,
		Status:        status,
		CreatedAt:     created,
	}, nil
}
