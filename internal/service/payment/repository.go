package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

type eventStore interface {
	Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error)
	ReadStream(ctx context.Context, aggregateID uuid.UUID) ([]domain.Record, error)
}

// Repository rebuilds payments from their event streams and appends new
// events under the stream's expected version.
type Repository struct {
	store eventStore
}

func NewRepository(store eventStore) *Repository {
	return &Repository{store: store}
}

// Load replays the whole stream. An unknown id yields the zero Payment;
// whether that is an error is up to the caller.
func (r *Repository) Load(ctx context.Context, id uuid.UUID) (domain.Payment, error) {
	records, err := r.store.ReadStream(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("Load: %w", err)
	}
	return domain.Replay(records), nil
}

func (r *Repository) Save(ctx context.Context, id uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error) {
	rec, err := r.store.Append(ctx, id, expectedVersion, event)
	if err != nil {
		return domain.Record{}, fmt.Errorf("Save: %w", err)
	}
	return rec, nil
}

func (r *Repository) History(ctx context.Context, id uuid.UUID) ([]domain.Record, error) {
	records, err := r.store.ReadStream(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return records, nil
}
