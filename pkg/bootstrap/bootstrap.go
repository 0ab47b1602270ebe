// Package bootstrap builds the storefront services from a config.Config.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.connectwisedev.com/storefront-service/pkg/cache"
	"gitlab.connectwisedev.com/storefront-service/pkg/catalog"
	"gitlab.connectwisedev.com/storefront-service/pkg/config"
	"gitlab.connectwisedev.com/storefront-service/pkg/database"
	"gitlab.connectwisedev.com/storefront-service/pkg/messaging"
	"gitlab.connectwisedev.com/storefront-service/pkg/orders"
	"gitlab.connectwisedev.com/storefront-service/pkg/store"
)

// Services is everything a handler needs. Close releases the connections
// New opened.
type Services struct {
	Config  *config.Config
	Store   store.Store
	Catalog *catalog.Catalog
	Orders  *orders.Manager

	db    *database.DBClient
	redis *cache.RedisClient
	conn  *amqp.Connection
	ch    *amqp.Channel
}

// New connects the configured backend and the optional Redis cache and
// RabbitMQ publisher. Redis and RabbitMQ failures are logged and the
// service runs without them; a store failure is returned.
func New(ctx context.Context, cfg *config.Config) (*Services, error) {
	svc := &Services{Config: cfg}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Println("Using in-memory store.")
		svc.Store = store.NewMemoryStore()
	case config.BackendPostgres:
		db, err := database.NewPostgresClient(cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := db.Migrate(migrateCtx); err != nil {
			db.Close()
			return nil, err
		}
		svc.db = db
		svc.Store = store.NewPostgresStore(db.GetDB())
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var catalogOpts []catalog.Option
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Warning: product cache disabled: %v", err)
		} else {
			svc.redis = rc
			catalogOpts = append(catalogOpts, catalog.WithCache(cache.NewProductCache(rc.GetClient(), cfg.Redis.TTL)))
		}
	}
	svc.Catalog = catalog.New(svc.Store, catalogOpts...)

	var orderOpts []orders.Option
	if cfg.AMQPURL != "" {
		conn, ch, err := messaging.SetupConn(cfg.AMQPURL, 1)
		if err != nil {
			log.Printf("Warning: order events disabled: %v", err)
		} else {
			svc.conn, svc.ch = conn, ch
			orderOpts = append(orderOpts, orders.WithPublisher(messaging.NewPublisher(ch)))
		}
	}
	svc.Orders = orders.NewManager(svc.Store, svc.Catalog, orderOpts...)

	return svc, nil
}

// Health reports "ok" or the failure for each connected backend. The
// memory store always reports ok.
func (s *Services) Health(ctx context.Context) map[string]string {
	status := map[string]string{"store": "ok"}
	if s.db != nil {
		status["store"] = healthOf(s.db.Ping(ctx))
	}
	if s.redis != nil {
		status["cache"] = healthOf(s.redis.Ping(ctx))
	}
	if s.conn != nil {
		status["events"] = "ok"
		if s.conn.IsClosed() {
			status["events"] = "connection closed"
		}
	}
	return status
}

func healthOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func (s *Services) Close() {
	if s.ch != nil {
		s.ch.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// MustNew loads the environment and builds Services, exiting on failure.
// Lambda entry points call it from init().
func MustNew() *Services {
	config.LoadEnv()
	svc, err := New(context.Background(), config.Load())
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	return svc
}
