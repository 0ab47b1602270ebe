package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store backends understood by bootstrap.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the typed view of the service environment
type Config struct {
	AppEnv            string
	StoreBackend      string
	Database          Database
	Redis             Redis
	AMQPURL           string
	LowStockThreshold int
	TaxRate           decimal.Decimal
	RecentOrdersLimit int
	LocalAddr         string
}

// Database holds PostgreSQL connection settings
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the lib/pq key=value connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redis holds product cache settings; an empty Addr disables the cache.
type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// LoadEnv loads environment variables from .env.local if APP_ENV is "local"
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development" // Default to development if not set
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		err := godotenv.Load(".env.local")
		if err != nil {
			log.Printf("Warning: .env.local file not found, or error loading: %v. Relying on system environment variables.", err)
		} else {
			log.Println("Loaded .env.local for local development.")
		}
	} else {
		log.Printf("Running in %s environment. Not loading .env.local.", appEnv)
	}
}

// Load reads the configuration from the process environment.
// Malformed numeric values fall back to their defaults with a warning.
func Load() *Config {
	return &Config{
		AppEnv:       getString("APP_ENV", "development"),
		StoreBackend: getString("STORE_BACKEND", BackendPostgres),
		Database: Database{
			Host:     getString("DB_HOST", "localhost"),
			Port:     getString("DB_PORT", "5432"),
			User:     getString("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getString("DB_NAME", "storefront"),
			SSLMode:  getString("DB_SSLMODE", "disable"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			TTL:      getDuration("PRODUCT_CACHE_TTL", 5*time.Minute),
		},
		AMQPURL:           os.Getenv("AMQP_URL"),
		LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", 10),
		TaxRate:           getDecimal("TAX_RATE", decimal.RequireFromString("0.08")),
		RecentOrdersLimit: getInt("RECENT_ORDERS_LIMIT", 5),
		LocalAddr:         getString("LOCAL_ADDR", ":8080"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
