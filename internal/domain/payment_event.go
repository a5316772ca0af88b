package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypePaymentRequested EventType = "payment.requested"
	EventTypePaymentCompleted EventType = "payment.completed"
	EventTypePaymentDiscarded EventType = "payment.discarded"
	EventTypePaymentTimedOut  EventType = "payment.timed_out"
)

// Event is a fact appended to a payment's stream. The set of implementations
// is closed to this package.
type Event interface {
	EventType() EventType
	AggregateID() uuid.UUID
	isEvent()
}

type PaymentRequested struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type PaymentCompleted struct {
	PaymentID uuid.UUID `json:"payment_id"`
}

type PaymentDiscarded struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Reason    string    `json:"reason"`
}

type PaymentTimedOut struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	TimedOutAt time.Time `json:"timed_out_at"`
}

func (PaymentRequested) EventType() EventType { return EventTypePaymentRequested }
func (PaymentCompleted) EventType() EventType { return EventTypePaymentCompleted }
func (PaymentDiscarded) EventType() EventType { return EventTypePaymentDiscarded }
func (PaymentTimedOut) EventType() EventType  { return EventTypePaymentTimedOut }

func (e PaymentRequested) AggregateID() uuid.UUID { return e.PaymentID }
func (e PaymentCompleted) AggregateID() uuid.UUID { return e.PaymentID }
func (e PaymentDiscarded) AggregateID() uuid.UUID { return e.PaymentID }
func (e PaymentTimedOut) AggregateID() uuid.UUID  { return e.PaymentID }

func (PaymentRequested) isEvent() {}
func (PaymentCompleted) isEvent() {}
func (PaymentDiscarded) isEvent() {}
func (PaymentTimedOut) isEvent()  {}

// Record is an event as stored: Version is the stream position it was
// appended at, starting from 1.
type Record struct {
	AggregateID uuid.UUID
	Version     int64
	Type        EventType
	Event       Event
	OccurredAt  time.Time
}
