package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.connectwisedev.com/storefront-service/pkg/config"
)

// RedisClient owns the connection behind the product cache.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient dials cfg.Addr and fails unless the server answers a ping
// within five seconds.
func NewRedisClient(cfg config.Redis) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	rc := &RedisClient{client: client}
	if err := rc.Ping(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	log.Printf("Connected to Redis at %s (db %d).", cfg.Addr, cfg.DB)
	return rc, nil
}

// Ping checks the connection, bounded to five seconds.
func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach Redis: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		log.Println("Redis connection closed.")
	}
}

// GetClient returns the underlying *redis.Client instance
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
