package domain

import (
	"fmt"
	"strings"
)

// Decide validates cmd against the current state and returns the single event
// it produces. It performs no I/O and never mutates p.
func Decide(p Payment, cmd Command) (Event, error) {
	if c, ok := cmd.(RequestPayment); ok {
		return decideRequest(p, c)
	}
	if cmd == nil {
		return nil, fmt.Errorf("Decide: nil command: %w", ErrInvalidRequest)
	}

	if !p.Exists() {
		return nil, fmt.Errorf("Decide: %s: %w", cmd.AggregateID(), ErrAggregateNotFound)
	}
	if p.ID != cmd.AggregateID() {
		return nil, fmt.Errorf("Decide: command for %s applied to %s: %w", cmd.AggregateID(), p.ID, ErrInvalidRequest)
	}
	if p.Status.IsTerminal() {
		return nil, fmt.Errorf("Decide: payment is %s: %w", p.Status, ErrInvalidTransition)
	}

	switch c := cmd.(type) {
	case CompletePayment:
		return PaymentCompleted{PaymentID: c.PaymentID}, nil
	case DiscardPayment:
		reason := strings.TrimSpace(c.Reason)
		if reason == "" {
			return nil, fmt.Errorf("Decide: %w", ErrInvalidReason)
		}
		return PaymentDiscarded{PaymentID: c.PaymentID, Reason: reason}, nil
	case TimeOutPayment:
		if c.TimedOutAt.IsZero() {
			return nil, fmt.Errorf("Decide: %w", ErrInvalidTimestamp)
		}
		return PaymentTimedOut{PaymentID: c.PaymentID, TimedOutAt: c.TimedOutAt.UTC()}, nil
	default:
		return nil, fmt.Errorf("Decide: unsupported command %T: %w", cmd, ErrInvalidRequest)
	}
}

func decideRequest(p Payment, c RequestPayment) (Event, error) {
	if p.Exists() {
		return nil, fmt.Errorf("Decide: payment %s already %s: %w", c.PaymentID, p.Status, ErrInvalidTransition)
	}
	if !c.Amount.IsPositive() {
		return nil, fmt.Errorf("Decide: %s: %w", c.Amount, ErrInvalidAmount)
	}
	return PaymentRequested{
		PaymentID: c.PaymentID,
		OrderID:   c.OrderID,
		Amount:    c.Amount,
	}, nil
}

// Apply returns the state after e. Events it does not recognise leave the
// state untouched, so the version only counts applied events.
func Apply(p Payment, e Event) Payment {
	switch ev := e.(type) {
	case PaymentRequested:
		p.ID = ev.PaymentID
		p.OrderID = ev.OrderID
		p.Amount = ev.Amount
		p.Status = PaymentStatusRequested
	case PaymentCompleted:
		p.Status = PaymentStatusCompleted
	case PaymentDiscarded:
		p.Status = PaymentStatusDiscarded
		p.DiscardReason = ev.Reason
	case PaymentTimedOut:
		t := ev.TimedOutAt
		p.Status = PaymentStatusTimedOut
		p.TimedOutAt = &t
	default:
		return p
	}
	p.Version++
	return p
}

func Replay(records []Record) Payment {
	var p Payment
	for _, r := range records {
		p = Apply(p, r.Event)
	}
	return p
}
