package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	EventStore  string `env:"EVENT_STORE" envDefault:"postgres"`
	RedisURL    string `env:"REDIS_URL"`
	RedisStream string `env:"REDIS_STREAM" envDefault:"payments.events"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	CommandMaxAttempts int `env:"COMMAND_MAX_ATTEMPTS" envDefault:"3"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.EventStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when EVENT_STORE=postgres"))
		}
		if c.OutboxPollInterval <= 0 {
			errs = append(errs, fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval))
		}
		if c.OutboxBatchSize < 1 {
			errs = append(errs, fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1, got %d", c.OutboxBatchSize))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("EVENT_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.EventStore))
	}

	if c.CommandMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("COMMAND_MAX_ATTEMPTS must be at least 1, got %d", c.CommandMaxAttempts))
	}

	return errors.Join(errs...)
}

// RelayEnabled reports whether appended events should be forwarded to Redis.
func (c Config) RelayEnabled() bool {
	return c.EventStore == StorePostgres && c.RedisURL != ""
}
