package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

var ErrUnknownEventType = errors.New("unknown event type")

func Encode(e domain.Event) (domain.EventType, []byte, error) {
	if e == nil {
		return "", nil, fmt.Errorf("Encode: nil event")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", nil, fmt.Errorf("Encode: %s: %w", e.EventType(), err)
	}
	return e.EventType(), data, nil
}

func Decode(t domain.EventType, data []byte) (domain.Event, error) {
	switch t {
	case domain.EventTypePaymentRequested:
		return decodeAs[domain.PaymentRequested](t, data)
	case domain.EventTypePaymentCompleted:
		return decodeAs[domain.PaymentCompleted](t, data)
	case domain.EventTypePaymentDiscarded:
		return decodeAs[domain.PaymentDiscarded](t, data)
	case domain.EventTypePaymentTimedOut:
		return decodeAs[domain.PaymentTimedOut](t, data)
	default:
		return nil, fmt.Errorf("Decode: %q: %w", t, ErrUnknownEventType)
	}
}

func decodeAs[E domain.Event](t domain.EventType, data []byte) (domain.Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("Decode: %s: %w", t, err)
	}
	return e, nil
}
