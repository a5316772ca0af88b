package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/josh-kwaku/payments-es/internal/publisher"
	"github.com/josh-kwaku/payments-es/internal/repository"
)

const DefaultOutboxBatchSize = 50

type outboxRepo interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	ClaimPending(ctx context.Context, tx *sql.Tx, limit int) ([]repository.OutboxEntry, error)
	MarkPublished(ctx context.Context, tx *sql.Tx, ids []int64) error
}

type eventPublisher interface {
	Publish(ctx context.Context, msg publisher.Message) (string, error)
}

// OutboxRelay forwards committed events from the outbox table to the
// publisher. Delivery is at-least-once: a crash between publish and commit
// republishes the batch on the next poll.
type OutboxRelay struct {
	outbox    outboxRepo
	publisher eventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewOutboxRelay(outbox outboxRepo, pub eventPublisher, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxRelay {
	if batchSize < 1 {
		batchSize = DefaultOutboxBatchSize
	}
	return &OutboxRelay{
		outbox:    outbox,
		publisher: pub,
		logger:    logger.With("component", "outbox-relay"),
		interval:  interval,
		batchSize: batchSize,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

// poll drains full batches until the outbox is empty or a publish fails.
func (r *OutboxRelay) poll(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.relayBatch(ctx)
		if err != nil {
			r.logger.Error("outbox relay batch failed", "published", n, "error", err)
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// relayBatch publishes claimed entries in id order and stops at the first
// failure, so an aggregate's events never reach the stream out of order.
// Entries published before the failure are still marked.
func (r *OutboxRelay) relayBatch(ctx context.Context) (int, error) {
	tx, err := r.outbox.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("relayBatch: %w", err)
	}
	defer tx.Rollback()

	entries, err := r.outbox.ClaimPending(ctx, tx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("relayBatch: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(entries))
	var publishErr error
	for _, e := range entries {
		if _, err := r.publisher.Publish(ctx, toMessage(e)); err != nil {
			publishErr = fmt.Errorf("relayBatch: outbox entry %d: %w", e.ID, err)
			break
		}
		published = append(published, e.ID)
	}

	if len(published) == 0 {
		return 0, publishErr
	}

	if err := r.outbox.MarkPublished(ctx, tx, published); err != nil {
		return 0, fmt.Errorf("relayBatch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("relayBatch: commit: %w", err)
	}

	r.logger.Debug("outbox batch relayed", "published", len(published), "claimed", len(entries))
	return len(published), publishErr
}

func toMessage(e repository.OutboxEntry) publisher.Message {
	return publisher.Message{
		ID:          e.ID,
		AggregateID: e.AggregateID,
		Version:     e.Version,
		Type:        e.EventType,
		OccurredAt:  e.OccurredAt,
		Payload:     e.Payload,
	}
}
