// Package store is the persistence collaborator behind the catalog and
// order manager. Records are loosely typed maps keyed by column name; the
// Record accessors absorb type and field-name drift between backends.
package store

import (
	"context"
	"errors"
)

// Collections used by the storefront.
const (
	Products = "products"
	Orders   = "orders"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnavailable       = errors.New("store unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrConflict means the record no longer holds the expected values.
	ErrConflict = errors.New("record changed concurrently")
)

// Query narrows a Fetch. Filter matches fields by equality.
// A zero Limit means no limit.
type Query struct {
	Filter  map[string]any
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Store is implemented by every persistence adapter.
type Store interface {
	Fetch(ctx context.Context, collection string, q Query) ([]Record, error)
	FetchOne(ctx context.Context, collection string, id int64) (Record, error)
	// Insert assigns the id and returns the stored record.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)
	// Update merges partial into the record and returns the result.
	Update(ctx context.Context, collection string, id int64, partial Record) (Record, error)
	// UpdateIf is Update guarded by expect: the write happens only while every
	// field in expect still equals the stored value, otherwise ErrConflict.
	UpdateIf(ctx context.Context, collection string, id int64, expect, partial Record) (Record, error)
	// Remove reports whether a record was deleted.
	Remove(ctx context.Context, collection string, id int64) (bool, error)
}

// schema lists the writable columns of each collection. "id" is implicit.
var schema = map[string][]string{
	Products: {"name", "description", "price", "stock_quantity", "category", "image_url", "created_at", "updated_at"},
	Orders:   {"customer_name", "customer_email", "customer_phone", "total_amount", "status", "items", "created_at"},
}

func columns(collection string) ([]string, error) {
	cols, ok := schema[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}
	return cols, nil
}

func hasColumn(collection, name string) bool {
	if name == "id" {
		return true
	}
	for _, c := range schema[collection] {
		if c == name {
			return true
		}
	}
	return false
}
