package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Command is a request to change a payment. Commands are never stored; a
// successful one is translated into exactly one Event.
type Command interface {
	AggregateID() uuid.UUID
	isCommand()
}

type RequestPayment struct {
	PaymentID uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
}

type CompletePayment struct {
	PaymentID uuid.UUID
}

type DiscardPayment struct {
	PaymentID uuid.UUID
	Reason    string
}

type TimeOutPayment struct {
	PaymentID  uuid.UUID
	TimedOutAt time.Time
}

func (c RequestPayment) AggregateID() uuid.UUID  { return c.PaymentID }
func (c CompletePayment) AggregateID() uuid.UUID { return c.PaymentID }
func (c DiscardPayment) AggregateID() uuid.UUID  { return c.PaymentID }
func (c TimeOutPayment) AggregateID() uuid.UUID  { return c.PaymentID }

func (RequestPayment) isCommand()  {}
func (CompletePayment) isCommand() {}
func (DiscardPayment) isCommand()  {}
func (TimeOutPayment) isCommand()  {}
