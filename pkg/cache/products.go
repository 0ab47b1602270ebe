package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.connectwisedev.com/storefront-service/models"
)

const allProductIDsKey = "all_product_ids"

// ErrCacheMiss means the cached product list is absent or incomplete.
var ErrCacheMiss = errors.New("product cache miss")

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// ProductCache stores the full product list as one JSON key per product
// plus a set of all cached ids.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

// GetAll returns every cached product ordered by id. Any evicted entry
// turns the whole read into a miss so the caller refetches from the store.
func (c *ProductCache) GetAll(ctx context.Context) ([]models.Product, error) {
	ids, err := c.client.SMembers(ctx, allProductIDsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get %s from Redis: %w", allProductIDsKey, err)
	}
	if len(ids) == 0 {
		return nil, ErrCacheMiss
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "product:" + id
	}

	results, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET products from Redis: %w", err)
	}

	products := make([]models.Product, 0, len(results))
	for i, res := range results {
		productJSON, ok := res.(string)
		if !ok {
			log.Printf("Cached product %s missing or unreadable (%T), treating as cache miss.", keys[i], res)
			return nil, ErrCacheMiss
		}
		var product models.Product
		if err := json.Unmarshal([]byte(productJSON), &product); err != nil {
			log.Printf("Failed to unmarshal product JSON from Redis: %v", err)
			return nil, ErrCacheMiss
		}
		products = append(products, product)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// SetAll replaces the cached product list.
func (c *ProductCache) SetAll(ctx context.Context, products []models.Product) error {
	pipe := c.client.Pipeline()
	ids := make([]interface{}, 0, len(products))

	for _, p := range products {
		productJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %d for cache: %w", p.ID, err)
		}
		pipe.Set(ctx, productKey(p.ID), productJSON, c.ttl)
		ids = append(ids, p.ID)
	}

	pipe.Del(ctx, allProductIDsKey)
	if len(ids) > 0 {
		pipe.SAdd(ctx, allProductIDsKey, ids...)
		if c.ttl > 0 {
			pipe.Expire(ctx, allProductIDsKey, c.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for cache population: %w", err)
	}
	return nil
}

// Invalidate drops the id set and the given product entries.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) error {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, allProductIDsKey)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	return nil
}
