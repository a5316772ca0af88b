package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/config"
	"github.com/josh-kwaku/payments-es/internal/domain"
	"github.com/josh-kwaku/payments-es/internal/eventstore"
	"github.com/josh-kwaku/payments-es/internal/handler"
	"github.com/josh-kwaku/payments-es/internal/publisher"
	"github.com/josh-kwaku/payments-es/internal/repository"
	"github.com/josh-kwaku/payments-es/internal/service"
)

type eventStore interface {
	Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error)
	ReadStream(ctx context.Context, aggregateID uuid.UUID) ([]domain.Record, error)
}

type deps struct {
	store  eventStore
	relay  *service.OutboxRelay
	health *handler.HealthHandler
}

// buildDeps selects the event store backend. On error every connection
// opened so far is already closed.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("cleanup failed", "error", err)
			}
		}
	}
	fail := func(err error) (deps, func(), error) {
		cleanup()
		return deps{}, func() {}, fmt.Errorf("buildDeps: %w", err)
	}

	if cfg.EventStore == config.StoreMemory {
		slog.Warn("using in-memory event store; events are lost on restart")
		return deps{
			store:  eventstore.NewMemoryStore(logger),
			health: handler.NewHealthHandler(nil),
		}, cleanup, nil
	}

	db, err := connectDB(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, db.Close)

	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		return fail(err)
	}

	outbox := repository.NewOutboxRepository(db)
	checks := []handler.HealthCheck{{Name: "database", Probe: db.PingContext}}

	d := deps{store: repository.NewEventStore(db)}

	if cfg.RelayEnabled() {
		pub, err := publisher.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisStream, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		checks = append(checks, handler.HealthCheck{Name: "redis", Probe: pub.Ping})
		d.relay = service.NewOutboxRelay(outbox, pub, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	} else {
		slog.Warn("REDIS_URL not set; outbox entries will accumulate unpublished")
	}

	d.health = handler.NewHealthHandler(outbox, checks...)
	return d, cleanup, nil
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		var db *sql.DB
		if db, err = repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connectDB: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
