// Package catalog reads and writes product records through a store.Store and
// keeps an optional product cache in step with writes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/store"
)

// ProductCache is the read-through cache consulted by List.
// *cache.ProductCache satisfies it.
type ProductCache interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	SetAll(ctx context.Context, products []models.Product) error
	Invalidate(ctx context.Context, ids ...int64) error
}

// Catalog is the product accessor shared by the shop, the manager screens
// and the order manager.
type Catalog struct {
	store store.Store
	cache ProductCache
	group singleflight.Group
	now   func() time.Time

	// writes counts cache invalidations; a List whose store read overlapped
	// one skips repopulating the cache.
	writes atomic.Uint64
}

type Option func(*Catalog)

// WithCache enables the read-through product cache.
func WithCache(c ProductCache) Option {
	return func(cat *Catalog) { cat.cache = c }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(cat *Catalog) { cat.now = now }
}

func New(s store.Store, opts ...Option) *Catalog {
	c := &Catalog{store: s, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every product ordered by id, serving from the cache when it
// is complete and repopulating it after a store read.
func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	if c.cache != nil {
		products, err := c.cache.GetAll(ctx)
		if err == nil {
			return products, nil
		}
		log.Printf("Product cache unavailable (%v), falling back to store.", err)
	}

	// Concurrent misses share one store read. The read runs detached from
	// the first caller's context so its cancellation cannot fail the others.
	ch := c.group.DoChan("all", func() (interface{}, error) {
		return c.populate(context.WithoutCancel(ctx))
	})
	var v interface{}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v = res.Val
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, ctx.Err())
	}

	shared := v.([]models.Product)
	products := make([]models.Product, len(shared))
	copy(products, shared)
	return products, nil
}

// populate reads the store and refills the cache unless a write invalidated
// it meanwhile. Other service instances are not tracked here; their stale
// fills are bounded by the cache TTL.
func (c *Catalog) populate(ctx context.Context) ([]models.Product, error) {
	seen := c.writes.Load()
	products, err := c.listFromStore(ctx)
	if err != nil {
		return nil, err
	}
	if c.cache == nil {
		return products, nil
	}
	if c.writes.Load() != seen {
		log.Printf("Products changed during read, not caching %d products.", len(products))
		return products, nil
	}
	if err := c.cache.SetAll(ctx, products); err != nil {
		log.Printf("Failed to populate product cache: %v", err)
	}
	return products, nil
}

func (c *Catalog) listFromStore(ctx context.Context) ([]models.Product, error) {
	records, err := c.store.Fetch(ctx, store.Products, store.Query{OrderBy: "id"})
	if err != nil {
		return nil, translate(err, 0)
	}

	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		p, err := productFromRecord(rec)
		if err != nil {
			log.Printf("Skipping malformed product record %d: %v", rec.ID(), err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// GetByID fails with models.ErrNotFound when no product has the id.
func (c *Catalog) GetByID(ctx context.Context, id int64) (models.Product, error) {
	rec, err := c.store.FetchOne(ctx, store.Products, id)
	if err != nil {
		return models.Product{}, translate(err, id)
	}
	return productFromRecord(rec)
}

// Create validates in, fills defaults and persists a new product.
func (c *Catalog) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return models.Product{}, err
	}

	now := c.now().UTC()
	rec := productRecord(in)
	rec["created_at"] = now
	rec["updated_at"] = now

	saved, err := c.store.Insert(ctx, store.Products, rec)
	if err != nil {
		return models.Product{}, translate(err, 0)
	}
	p, err := productFromRecord(saved)
	if err != nil {
		return models.Product{}, err
	}
	c.invalidate(ctx, p.ID)
	return p, nil
}

// Update replaces the editable fields of an existing product.
func (c *Catalog) Update(ctx context.Context, id int64, in models.ProductInput) (models.Product, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return models.Product{}, err
	}

	rec := productRecord(in)
	rec["updated_at"] = c.now().UTC()

	saved, err := c.store.Update(ctx, store.Products, id, rec)
	if err != nil {
		return models.Product{}, translate(err, id)
	}
	c.invalidate(ctx, id)
	return productFromRecord(saved)
}

// Delete reports true once the product is removed; an unknown id fails
// with models.ErrNotFound.
func (c *Catalog) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := c.store.Remove(ctx, store.Products, id)
	if err != nil {
		return false, translate(err, id)
	}
	if !removed {
		return false, translate(store.ErrNotFound, id)
	}
	c.invalidate(ctx, id)
	return true, nil
}

// AdjustStock applies a signed delta to the stock quantity, clamping at
// zero. The read and the write are separate store calls: two adjustments of
// the same product racing each other can lose one update (last write wins).
func (c *Catalog) AdjustStock(ctx context.Context, id int64, delta int) (models.Product, error) {
	current, err := c.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	qty := current.StockQuantity + delta
	if qty < 0 {
		qty = 0
	}

	saved, err := c.store.Update(ctx, store.Products, id, store.Record{
		"stock_quantity": qty,
		"updated_at":     c.now().UTC(),
	})
	if err != nil {
		return models.Product{}, translate(err, id)
	}
	c.invalidate(ctx, id)
	return productFromRecord(saved)
}

// ListLowStock returns products with at most threshold units, fewest first.
func (c *Catalog) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	products, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	low := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.StockQuantity <= threshold {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].StockQuantity < low[j].StockQuantity })
	return low, nil
}

func (c *Catalog) invalidate(ctx context.Context, id int64) {
	if c.cache == nil {
		return
	}
	c.writes.Add(1)
	if err := c.cache.Invalidate(ctx, id); err != nil {
		log.Printf("Error invalidating cached product %d: %v", id, err)
	}
}

func translate(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	default:
		return fmt.Errorf("catalog: %w", err)
	}
}
