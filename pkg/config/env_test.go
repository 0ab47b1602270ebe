package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "DB_HOST", "REDIS_ADDR", "LOW_STOCK_THRESHOLD", "TAX_RATE", "PRODUCT_CACHE_TTL", "AMQP_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, "0.08", cfg.TaxRate.String())
	assert.Equal(t, 5, cfg.RecentOrdersLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("TAX_RATE", "0.2")
	t.Setenv("PRODUCT_CACHE_TTL", "30s")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, "0.2", cfg.TaxRate.String())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadMalformedFallsBack(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "lots")
	t.Setenv("TAX_RATE", "-1")
	t.Setenv("PRODUCT_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, "0.08", cfg.TaxRate.String())
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
}

func TestDatabaseDSN(t *testing.T) {
	d := Database{Host: "db", Port: "5433", User: "shop", Password: "secret", Name: "store", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=shop password=secret dbname=store sslmode=require", d.DSN())
}
