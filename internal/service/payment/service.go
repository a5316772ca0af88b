package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

type historyReader interface {
	Load(ctx context.Context, id uuid.UUID) (domain.Payment, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.Record, error)
}

// Service is the read side: state is rebuilt from the stream on every call.
type Service struct {
	repo historyReader
}

func NewService(repo historyReader) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Payment, error) {
	p, err := s.repo.Load(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("Get: %w", err)
	}
	if !p.Exists() {
		return domain.Payment{}, fmt.Errorf("Get: %s: %w", id, domain.ErrAggregateNotFound)
	}
	return p, nil
}

func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.Record, error) {
	records, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("History: %s: %w", id, domain.ErrAggregateNotFound)
	}
	return records, nil
}
