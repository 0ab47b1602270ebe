// Package orders turns cart snapshots into persisted orders and moves them
// through their status lifecycle.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/store"
)

// StockAdjuster applies signed stock deltas. *catalog.Catalog satisfies it.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id int64, delta int) (models.Product, error)
}

// Manager exclusively owns order records.
type Manager struct {
	store     store.Store
	stock     StockAdjuster
	publisher Publisher
	now       func() time.Time
}

type Option func(*Manager)

// WithPublisher sends an Event after each create and status change.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(s store.Store, stock StockAdjuster, opts ...Option) *Manager {
	m := &Manager{store: s, stock: stock, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create checks out a cart snapshot for customer.
//
// Stock is decremented item by item before the order is written. There is
// no rollback: if an adjustment or the final insert fails, earlier
// decrements stay applied and the error is returned without an order.
// The caller clears its cart only after Create succeeds.
func (m *Manager) Create(ctx context.Context, customer models.CustomerInfo, items []models.LineItem) (models.Order, error) {
	if err := customer.Validate(); err != nil {
		return models.Order{}, err
	}
	if len(items) == 0 {
		return models.Order{}, models.ErrEmptyCart
	}

	snapshot, total, err := priceSnapshot(items)
	if err != nil {
		return models.Order{}, err
	}

	for i, item := range snapshot {
		if _, err := m.stock.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			if i > 0 {
				log.Printf("Order aborted after stock was decremented for %d of %d items (%s): %v",
					i, len(snapshot), describeItems(snapshot[:i]), err)
			}
			return models.Order{}, fmt.Errorf("adjust stock for product %d: %w", item.ProductID, err)
		}
	}

	itemsJSON, err := json.Marshal(snapshot)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to marshal order items: %w", err)
	}

	now := m.now().UTC()
	saved, err := m.store.Insert(ctx, store.Orders, store.Record{
		"customer_name":  strings.TrimSpace(customer.Name),
		"customer_email": strings.TrimSpace(customer.Email),
		"customer_phone": strings.TrimSpace(customer.Phone),
		"total_amount":   total,
		"status":         string(models.OrderStatusPending),
		"items":          string(itemsJSON),
		"created_at":     now,
	})
	if err != nil {
		log.Printf("Order insert failed after stock was decremented (%s): %v", describeItems(snapshot), err)
		return models.Order{}, translate(err, 0)
	}

	order, err := orderFromRecord(saved)
	if err != nil {
		return models.Order{}, err
	}
	log.Printf("Order %d created: %d items, total %s", order.ID, len(order.Items), order.TotalAmount.StringFixed(2))
	m.publish(ctx, newEvent(EventCreated, order, "", now))
	return order, nil
}

// priceSnapshot copies items, recomputing every subtotal from unit price and
// quantity rather than trusting the caller, and returns the order total.
func priceSnapshot(items []models.LineItem) ([]models.LineItem, decimal.Decimal, error) {
	verr := &models.ValidationError{}
	snapshot := make([]models.LineItem, len(items))
	total := decimal.Zero

	for i, item := range items {
		if item.ProductID <= 0 {
			verr.Add(fmt.Sprintf("items[%d].productId", i), "Product is required")
		}
		if item.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "Quantity must be a positive integer")
		}
		if item.UnitPrice.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].unitPrice", i), "Unit price must not be negative")
		}
		item.Subtotal = item.LineSubtotal()
		snapshot[i] = item
		total = total.Add(item.Subtotal)
	}
	if err := verr.OrNil(); err != nil {
		return nil, decimal.Zero, err
	}
	return snapshot, total, nil
}

func describeItems(items []models.LineItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("product %d x%d", item.ProductID, item.Quantity)
	}
	return strings.Join(parts, ", ")
}

// UpdateStatus moves a pending order to completed or cancelled. The write is
// conditional on the status read, so of two racing transitions only one
// lands and the other fails with models.ErrInvalidTransition.
func (m *Manager) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (models.Order, error) {
	current, err := m.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransition(current.Status, status) {
		return models.Order{}, fmt.Errorf("order %d: %s -> %q: %w", id, current.Status, status, models.ErrInvalidTransition)
	}

	saved, err := m.store.UpdateIf(ctx, store.Orders, id,
		store.Record{"status": string(current.Status)},
		store.Record{"status": string(status)})
	if errors.Is(err, store.ErrConflict) {
		return models.Order{}, fmt.Errorf("order %d: no longer %s: %w", id, current.Status, models.ErrInvalidTransition)
	}
	if err != nil {
		return models.Order{}, translate(err, id)
	}
	order, err := orderFromRecord(saved)
	if err != nil {
		return models.Order{}, err
	}
	log.Printf("Order %d moved from %s to %s", id, current.Status, order.Status)
	m.publish(ctx, newEvent(EventStatusChanged, order, current.Status, m.now().UTC()))
	return order, nil
}

// MarkCompleted is UpdateStatus(id, completed).
func (m *Manager) MarkCompleted(ctx context.Context, id int64) (models.Order, error) {
	return m.UpdateStatus(ctx, id, models.OrderStatusCompleted)
}

// Cancel is UpdateStatus(id, cancelled). Stock is not restored.
func (m *Manager) Cancel(ctx context.Context, id int64) (models.Order, error) {
	return m.UpdateStatus(ctx, id, models.OrderStatusCancelled)
}

// GetByID fails with models.ErrNotFound when no order has the id.
func (m *Manager) GetByID(ctx context.Context, id int64) (models.Order, error) {
	rec, err := m.store.FetchOne(ctx, store.Orders, id)
	if err != nil {
		return models.Order{}, translate(err, id)
	}
	return orderFromRecord(rec)
}

// List returns every order, newest first.
func (m *Manager) List(ctx context.Context) ([]models.Order, error) {
	return m.fetch(ctx, store.Query{OrderBy: "created_at", Desc: true})
}

// ListByStatus returns the orders in status, newest first. Store failures
// are logged and yield an empty list.
func (m *Manager) ListByStatus(ctx context.Context, status models.OrderStatus) []models.Order {
	orders, err := m.fetch(ctx, store.Query{
		Filter:  map[string]any{"status": string(status)},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		log.Printf("Error listing %s orders: %v", status, err)
		return []models.Order{}
	}
	return orders
}

// ListRecent returns at most limit orders, newest first. Store failures are
// logged and yield an empty list.
func (m *Manager) ListRecent(ctx context.Context, limit int) []models.Order {
	if limit <= 0 {
		return []models.Order{}
	}
	orders, err := m.fetch(ctx, store.Query{OrderBy: "created_at", Desc: true, Limit: limit})
	if err != nil {
		log.Printf("Error listing recent orders: %v", err)
		return []models.Order{}
	}
	return orders
}

// TotalRevenue sums the totals of completed orders. Store failures are
// logged and yield zero.
func (m *Manager) TotalRevenue(ctx context.Context) decimal.Decimal {
	completed, err := m.fetch(ctx, store.Query{Filter: map[string]any{"status": string(models.OrderStatusCompleted)}})
	if err != nil {
		log.Printf("Error computing revenue: %v", err)
		return decimal.Zero
	}
	total := decimal.Zero
	for _, o := range completed {
		total = total.Add(o.TotalAmount)
	}
	return total
}

// CountByStatus tallies orders per status. Store failures are logged and
// yield an empty map.
func (m *Manager) CountByStatus(ctx context.Context) map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int)
	all, err := m.List(ctx)
	if err != nil {
		log.Printf("Error counting orders: %v", err)
		return counts
	}
	for _, o := range all {
		counts[o.Status]++
	}
	return counts
}

func (m *Manager) fetch(ctx context.Context, q store.Query) ([]models.Order, error) {
	records, err := m.store.Fetch(ctx, store.Orders, q)
	if err != nil {
		return nil, translate(err, 0)
	}
	orders := make([]models.Order, 0, len(records))
	for _, rec := range records {
		o, err := orderFromRecord(rec)
		if err != nil {
			log.Printf("Skipping malformed order record %d: %v", rec.ID(), err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (m *Manager) publish(ctx context.Context, event Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		log.Printf("Error publishing %s for order %d: %v", event.Type, event.OrderID, err)
	}
}

func translate(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %v", models.ErrPersistenceUnavailable, err)
	default:
		return fmt.Errorf("orders: %w", err)
	}
}
