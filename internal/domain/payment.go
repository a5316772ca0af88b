package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusRequested PaymentStatus = "requested"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusDiscarded PaymentStatus = "discarded"
	PaymentStatusTimedOut  PaymentStatus = "timed_out"
)

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusDiscarded, PaymentStatusTimedOut:
		return true
	default:
		return false
	}
}

// Payment is the state rebuilt from a payment's event stream. The zero value
// is the absent aggregate: no events, Version 0.
type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Status        PaymentStatus
	Version       int64
	DiscardReason string
	TimedOutAt    *time.Time
}

func (p Payment) Exists() bool {
	return p.Version > 0
}
