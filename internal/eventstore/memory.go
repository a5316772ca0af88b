package eventstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

// MemoryStore keeps every stream in process memory. The store-wide lock only
// guards the stream index; the version check and write for one aggregate run
// under that stream's own lock.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[uuid.UUID]*memoryStream
	logger  *slog.Logger
	now     func() time.Time
}

type memoryStream struct {
	mu      sync.RWMutex
	records []domain.Record
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		streams: make(map[uuid.UUID]*memoryStream),
		logger:  logger.With("store", "memory"),
		now:     time.Now,
	}
}

func (s *MemoryStore) stream(id uuid.UUID, create bool) *memoryStream {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[id]
	if !ok && create {
		st = &memoryStream{}
		s.streams[id] = st
	}
	return st
}

func (s *MemoryStore) Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, fmt.Errorf("Append: %w", err)
	}
	if err := checkEvent(aggregateID, event); err != nil {
		return domain.Record{}, fmt.Errorf("Append: %w", err)
	}
	if expectedVersion < 0 {
		return domain.Record{}, fmt.Errorf("Append: expected version %d: %w", expectedVersion, domain.ErrConcurrencyConflict)
	}

	st := s.stream(aggregateID, expectedVersion == 0)
	if st == nil {
		return domain.Record{}, fmt.Errorf("Append: stream %s is empty, expected version %d: %w", aggregateID, expectedVersion, domain.ErrConcurrencyConflict)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	current := int64(len(st.records))
	if current != expectedVersion {
		return domain.Record{}, fmt.Errorf("Append: stream %s at version %d, expected %d: %w", aggregateID, current, expectedVersion, domain.ErrConcurrencyConflict)
	}

	rec := domain.Record{
		AggregateID: aggregateID,
		Version:     current + 1,
		Type:        event.EventType(),
		Event:       event,
		OccurredAt:  s.now().UTC(),
	}
	st.records = append(st.records, rec)

	s.logger.Debug("event appended",
		"aggregate_id", aggregateID,
		"version", rec.Version,
		"event_type", rec.Type,
	)
	return rec, nil
}

func (s *MemoryStore) ReadStream(ctx context.Context, aggregateID uuid.UUID) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ReadStream: %w", err)
	}

	st := s.stream(aggregateID, false)
	if st == nil {
		return []domain.Record{}, nil
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]domain.Record, len(st.records))
	copy(out, st.records)
	return out, nil
}

func checkEvent(aggregateID uuid.UUID, event domain.Event) error {
	if event == nil {
		return fmt.Errorf("nil event: %w", domain.ErrInvalidRequest)
	}
	if event.AggregateID() != aggregateID {
		return fmt.Errorf("event for %s appended to stream %s: %w", event.AggregateID(), aggregateID, domain.ErrInvalidRequest)
	}
	return nil
}
