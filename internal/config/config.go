// Package config loads application configuration from environment
// variables.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message; tunables
// with sensible defaults use the env* helpers instead.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	DBMaxOpenConns    int           // connection pool ceiling
	DBMaxIdleConns    int           // idle connections kept warm
	DBConnMaxLifetime time.Duration // recycle connections after this long
	DBPingTimeout     time.Duration // startup connectivity check timeout

	SessionSecret string // secret used to verify checkout session tokens
	RabbitURL     string // AMQP broker URL; empty disables event publishing

	StageLockTTL     time.Duration // per-stage/zone distributed mutex TTL
	LockRetries      int           // bounded mutex acquisition attempts
	LockRetryDelay   time.Duration // sleep between mutex attempts
	ReservationTTL   time.Duration // pending quota reservation lifetime
	InventoryTTL     time.Duration // default inventory lock lifetime
	InventoryMaxTTL  time.Duration // cap on requested inventory lock lifetimes
	CounterCacheTTL  time.Duration // sold/reserved counter cache TTL
	StageCacheTTL    time.Duration // current-stage resolution cache TTL
	SweepInterval    time.Duration // expiry sweeper period
	MonitorInterval  time.Duration // transition monitor period
	SweepBatchSize   int           // max locks expired per sweep pass
	PriceRecordLimit int           // default page size for audit listings
}

// Load reads configuration values from environment variables and returns
// a Config.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBPingTimeout:     envDur("DB_PING_TIMEOUT", 5*time.Second),

		SessionSecret: must("SESSION_SECRET"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),

		StageLockTTL:     envDur("STAGE_LOCK_TTL", 8*time.Second),
		LockRetries:      envInt("LOCK_RETRIES", 10),
		LockRetryDelay:   envDur("LOCK_RETRY_DELAY", 150*time.Millisecond),
		ReservationTTL:   envDur("RESERVATION_TTL", 5*time.Minute),
		InventoryTTL:     envDur("INVENTORY_LOCK_TTL", 15*time.Minute),
		InventoryMaxTTL:  envDur("INVENTORY_LOCK_MAX_TTL", 30*time.Minute),
		CounterCacheTTL:  envDur("COUNTER_CACHE_TTL", 90*time.Second),
		StageCacheTTL:    envDur("STAGE_CACHE_TTL", 60*time.Second),
		SweepInterval:    envDur("SWEEP_INTERVAL", 30*time.Second),
		MonitorInterval:  envDur("MONITOR_INTERVAL", 15*time.Second),
		SweepBatchSize:   envInt("SWEEP_BATCH_SIZE", 200),
		PriceRecordLimit: envInt("PRICE_RECORD_LIMIT", 100),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
