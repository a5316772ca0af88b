package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

type appender interface {
	Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error)
}

// SeedRequestedPayment appends a PaymentRequested event for a fresh id.
func SeedRequestedPayment(t *testing.T, store appender, amount int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := store.Append(context.Background(), id, 0, domain.PaymentRequested{
		PaymentID: id,
		OrderID:   uuid.New(),
		Amount:    decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("seed requested payment: %v", err)
	}
	return id
}

func CountEvents(t *testing.T, db *sql.DB, aggregateID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payment_events WHERE aggregate_id = $1`, aggregateID).Scan(&count)
	if err != nil {
		t.Fatalf("count payment events for %s: %v", aggregateID, err)
	}
	return count
}

func CountOutbox(t *testing.T, db *sql.DB, published bool) int {
	t.Helper()

	query := `SELECT COUNT(*) FROM event_outbox WHERE published_at IS NULL`
	if published {
		query = `SELECT COUNT(*) FROM event_outbox WHERE published_at IS NOT NULL`
	}
	var count int
	if err := db.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("count outbox entries: %v", err)
	}
	return count
}
