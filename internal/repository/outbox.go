package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

const outboxColumns = `id, aggregate_id, version, event_type, payload, occurred_at`

type OutboxEntry struct {
	ID          int64
	AggregateID uuid.UUID
	Version     int64
	EventType   domain.EventType
	Payload     json.RawMessage
	OccurredAt  time.Time
}

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", err)
	}
	return tx, nil
}

// ClaimPending locks up to limit unpublished entries for the lifetime of tx.
// Rows held by another relay are skipped rather than waited on.
func (r *OutboxRepository) ClaimPending(ctx context.Context, tx *sql.Tx, limit int) ([]OutboxEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimPending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ClaimPending: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimPending: rows: %w", err)
	}
	return entries, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE event_outbox SET published_at = now() WHERE id = ANY($1)`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("MarkPublished: %w", err)
	}
	return nil
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE published_at IS NULL`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountPending: %w", err)
	}
	return n, nil
}

func scanOutboxEntry(s scanner) (*OutboxEntry, error) {
	var e OutboxEntry
	var payload []byte
	if err := s.Scan(&e.ID, &e.AggregateID, &e.Version, &e.EventType, &payload, &e.OccurredAt); err != nil {
		return nil, err
	}
	e.Payload = payload
	e.OccurredAt = e.OccurredAt.UTC()
	return &e, nil
}
