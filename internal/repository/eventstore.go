package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/domain"
	"github.com/josh-kwaku/payments-es/internal/eventstore"
)

const eventColumns = `aggregate_id, version, event_type, payload, occurred_at`

// The insert only produces a row when the stream head equals the expected
// version. Two writers that both pass the check race on the primary key and
// the loser gets a unique violation.
const appendEventSQL = `INSERT INTO payment_events (aggregate_id, version, event_type, payload, occurred_at)
	SELECT $1::uuid, $2::bigint + 1, $3::text, $4::jsonb, $5::timestamptz
	WHERE (SELECT COALESCE(MAX(version), 0) FROM payment_events WHERE aggregate_id = $1::uuid) = $2::bigint`

const appendOutboxSQL = `INSERT INTO event_outbox (aggregate_id, version, event_type, payload, occurred_at)
	VALUES ($1, $2, $3, $4, $5)`

// EventStore is the Postgres payment event log. Each successful append also
// writes an outbox row in the same transaction for the relay to publish.
type EventStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db, now: time.Now}
}

func (s *EventStore) Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error) {
	if event == nil {
		return domain.Record{}, fmt.Errorf("Append: nil event: %w", domain.ErrInvalidRequest)
	}
	if event.AggregateID() != aggregateID {
		return domain.Record{}, fmt.Errorf("Append: event for %s appended to stream %s: %w", event.AggregateID(), aggregateID, domain.ErrInvalidRequest)
	}
	if expectedVersion < 0 {
		return domain.Record{}, fmt.Errorf("Append: expected version %d: %w", expectedVersion, domain.ErrConcurrencyConflict)
	}

	eventType, payload, err := eventstore.Encode(event)
	if err != nil {
		return domain.Record{}, fmt.Errorf("Append: %w", err)
	}

	rec := domain.Record{
		AggregateID: aggregateID,
		Version:     expectedVersion + 1,
		Type:        eventType,
		Event:       event,
		OccurredAt:  s.now().UTC().Truncate(time.Microsecond),
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, appendEventSQL,
			aggregateID, expectedVersion, eventType, payload, rec.OccurredAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("stream %s already has version %d: %w", aggregateID, rec.Version, domain.ErrConcurrencyConflict)
			}
			return fmt.Errorf("insert event: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert event: rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("stream %s not at version %d: %w", aggregateID, expectedVersion, domain.ErrConcurrencyConflict)
		}

		if _, err := tx.ExecContext(ctx, appendOutboxSQL,
			aggregateID, rec.Version, eventType, payload, rec.OccurredAt,
		); err != nil {
			return fmt.Errorf("insert outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("Append: %w", err)
	}
	return rec, nil
}

func (s *EventStore) ReadStream(ctx context.Context, aggregateID uuid.UUID) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM payment_events
		WHERE aggregate_id = $1 ORDER BY version`, aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("ReadStream: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ReadStream: %w", err)
		}
		if want := int64(len(records)) + 1; rec.Version != want {
			return nil, fmt.Errorf("ReadStream: stream %s has version %d at position %d", aggregateID, rec.Version, want)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadStream: rows: %w", err)
	}
	return records, nil
}

func scanRecord(s scanner) (*domain.Record, error) {
	var (
		r       domain.Record
		payload []byte
	)
	if err := s.Scan(&r.AggregateID, &r.Version, &r.Type, &payload, &r.OccurredAt); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	event, err := eventstore.Decode(r.Type, payload)
	if err != nil {
		return nil, err
	}
	r.Event = event
	r.OccurredAt = r.OccurredAt.UTC()
	return &r, nil
}
