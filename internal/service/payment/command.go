package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-es/internal/domain"
	"github.com/josh-kwaku/payments-es/internal/logging"
)

const DefaultMaxAttempts = 3

type aggregateRepository interface {
	Load(ctx context.Context, id uuid.UUID) (domain.Payment, error)
	Save(ctx context.Context, id uuid.UUID, expectedVersion int64, event domain.Event) (domain.Record, error)
}

type Result struct {
	PaymentID uuid.UUID
	Version   int64
	Status    domain.PaymentStatus
}

// CommandHandler runs load, decide and save for one command. Only
// concurrency conflicts are retried, and each retry starts from a fresh load.
type CommandHandler struct {
	repo        aggregateRepository
	maxAttempts int
}

func NewCommandHandler(repo aggregateRepository, maxAttempts int) (*CommandHandler, error) {
	if repo == nil {
		return nil, errors.New("NewCommandHandler: repository is required")
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("NewCommandHandler: max attempts must be at least 1, got %d", maxAttempts)
	}
	return &CommandHandler{repo: repo, maxAttempts: maxAttempts}, nil
}

func (h *CommandHandler) Handle(ctx context.Context, cmd domain.Command) (Result, error) {
	var name string
	switch cmd.(type) {
	case domain.RequestPayment:
		name = "request"
	case domain.CompletePayment:
		name = "complete"
	case domain.DiscardPayment:
		name = "discard"
	case domain.TimeOutPayment:
		name = "time_out"
	default:
		return Result{}, fmt.Errorf("Handle: unsupported command %T: %w", cmd, domain.ErrInvalidRequest)
	}

	id := cmd.AggregateID()
	if id == uuid.Nil {
		return Result{}, fmt.Errorf("Handle: %s: payment id is required: %w", name, domain.ErrInvalidRequest)
	}

	log := logging.FromContext(ctx).With("payment_id", id, "command", name)

	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("Handle: %s: %w", name, err)
		}

		res, err := h.attempt(ctx, id, cmd)
		if err == nil {
			log.Info("command applied", "version", res.Version, "status", res.Status, "attempt", attempt)
			return res, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			if domain.IsDomainRule(err) {
				log.Info("command rejected", "error", err)
			} else if !errors.Is(err, domain.ErrInvalidRequest) {
				log.Error("command failed", "error", err)
			}
			return Result{}, fmt.Errorf("Handle: %s: %w", name, err)
		}

		lastErr = err
		log.Warn("concurrency conflict", "attempt", attempt, "max_attempts", h.maxAttempts)
	}

	return Result{}, fmt.Errorf("Handle: %s: gave up after %d attempts: %w", name, h.maxAttempts, lastErr)
}

func (h *CommandHandler) attempt(ctx context.Context, id uuid.UUID, cmd domain.Command) (Result, error) {
	p, err := h.repo.Load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	event, err := domain.Decide(p, cmd)
	if err != nil {
		return Result{}, err
	}

	rec, err := h.repo.Save(ctx, id, p.Version, event)
	if err != nil {
		return Result{}, err
	}

	next := domain.Apply(p, event)
	return Result{PaymentID: id, Version: rec.Version, Status: next.Status}, nil
}
