package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payments-es/internal/domain"
	"github.com/josh-kwaku/payments-es/internal/service/payment"
)

type fakeCommands struct {
	got domain.Command
	res payment.Result
	err error
}

func (f *fakeCommands) Handle(_ context.Context, cmd domain.Command) (payment.Result, error) {
	f.got = cmd
	if f.err != nil {
		return payment.Result{}, f.err
	}
	res := f.res
	res.PaymentID = cmd.AggregateID()
	return res, nil
}

type fakeReader struct {
	payment domain.Payment
	records []domain.Record
	err     error
}

func (f *fakeReader) Get(context.Context, uuid.UUID) (domain.Payment, error) {
	return f.payment, f.err
}

func (f *fakeReader) History(context.Context, uuid.UUID) ([]domain.Record, error) {
	return f.records, f.err
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestPaymentHandler_Create(t *testing.T) {
	fixedID := uuid.MustParse("7b0c1f0e-2f6a-4d55-9a53-3c0e8e0c9a11")
	orderID := uuid.New()

	tests := []struct {
		name       string
		body       string
		cmdErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid request",
			body:       fmt.Sprintf(`{"order_id":%q,"amount":"100.50"}`, orderID),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "numeric amount",
			body:       fmt.Sprintf(`{"order_id":%q,"amount":100}`, orderID),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid JSON",
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "order id not a uuid",
			body:       `{"order_id":"O1","amount":"10"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "zero amount rejected by the aggregate",
			body:       fmt.Sprintf(`{"order_id":%q,"amount":"0"}`, orderID),
			cmdErr:     fmt.Errorf("Handle: request: Decide: %w", domain.ErrInvalidAmount),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_AMOUNT",
		},
		{
			name:       "retries exhausted",
			body:       fmt.Sprintf(`{"order_id":%q,"amount":"5"}`, orderID),
			cmdErr:     fmt.Errorf("Handle: request: gave up after 3 attempts: %w", domain.ErrConcurrencyConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "CONCURRENCY_CONFLICT",
		},
		{
			name:       "infrastructure failure",
			body:       fmt.Sprintf(`{"order_id":%q,"amount":"5"}`, orderID),
			cmdErr:     errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmds := &fakeCommands{
				res: payment.Result{Version: 1, Status: domain.PaymentStatusRequested},
				err: tc.cmdErr,
			}
			h := NewPaymentHandler(cmds, &fakeReader{}, func() uuid.UUID { return fixedID })

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)

			if tc.wantCode != "" {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}

			assert.True(t, resp.Success)
			assert.Equal(t, "/api/v1/payments/"+fixedID.String(), rr.Header().Get("Location"))

			got, ok := cmds.got.(domain.RequestPayment)
			require.True(t, ok)
			assert.Equal(t, fixedID, got.PaymentID)
			assert.Equal(t, orderID, got.OrderID)

			data := resp.Data.(map[string]any)
			assert.Equal(t, fixedID.String(), data["id"])
			assert.Equal(t, float64(1), data["version"])
			assert.Equal(t, "requested", data["status"])
		})
	}
}

func TestPaymentHandler_Commands(t *testing.T) {
	id := uuid.New()
	timedOutAt := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		call       func(h *PaymentHandler) http.HandlerFunc
		pathID     string
		body       string
		cmdErr     error
		wantStatus int
		wantCode   string
		wantCmd    domain.Command
	}{
		{
			name:       "complete",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Complete },
			pathID:     id.String(),
			wantStatus: http.StatusOK,
			wantCmd:    domain.CompletePayment{PaymentID: id},
		},
		{
			name:       "complete terminal payment",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Complete },
			pathID:     id.String(),
			cmdErr:     fmt.Errorf("Decide: %w", domain.ErrInvalidTransition),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_TRANSITION",
		},
		{
			name:       "complete unknown payment",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Complete },
			pathID:     id.String(),
			cmdErr:     fmt.Errorf("Decide: %w", domain.ErrAggregateNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "PAYMENT_NOT_FOUND",
		},
		{
			name:       "malformed path id",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Complete },
			pathID:     "not-a-uuid",
			wantStatus: http.StatusNotFound,
			wantCode:   "PAYMENT_NOT_FOUND",
		},
		{
			name:       "discard",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Discard },
			pathID:     id.String(),
			body:       `{"reason":"late"}`,
			wantStatus: http.StatusOK,
			wantCmd:    domain.DiscardPayment{PaymentID: id, Reason: "late"},
		},
		{
			name:       "discard without reason",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.Discard },
			pathID:     id.String(),
			cmdErr:     fmt.Errorf("Decide: %w", domain.ErrInvalidReason),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REASON",
		},
		{
			name:       "time out",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.TimeOut },
			pathID:     id.String(),
			body:       `{"timed_out_at":"2026-02-20T09:00:00Z"}`,
			wantStatus: http.StatusOK,
			wantCmd:    domain.TimeOutPayment{PaymentID: id, TimedOutAt: timedOutAt},
		},
		{
			name:       "time out missing timestamp",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.TimeOut },
			pathID:     id.String(),
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "time out zero timestamp",
			call:       func(h *PaymentHandler) http.HandlerFunc { return h.TimeOut },
			pathID:     id.String(),
			body:       `{"timed_out_at":"0001-01-01T00:00:00Z"}`,
			cmdErr:     fmt.Errorf("Decide: %w", domain.ErrInvalidTimestamp),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TIMESTAMP",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmds := &fakeCommands{
				res: payment.Result{Version: 2, Status: domain.PaymentStatusCompleted},
				err: tc.cmdErr,
			}
			h := NewPaymentHandler(cmds, &fakeReader{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.SetPathValue("id", tc.pathID)
			rr := httptest.NewRecorder()
			tc.call(h)(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)

			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}

			assert.True(t, resp.Success)
			assert.Equal(t, tc.wantCmd, cmds.got)
		})
	}
}

func TestPaymentHandler_Get(t *testing.T) {
	id := uuid.New()
	reader := &fakeReader{payment: domain.Payment{
		ID:            id,
		OrderID:       uuid.New(),
		Amount:        decimal.RequireFromString("42.10"),
		Status:        domain.PaymentStatusDiscarded,
		Version:       2,
		DiscardReason: "late",
	}}
	h := NewPaymentHandler(&fakeCommands{}, reader, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeResponse(t, rr).Data.(map[string]any)
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, "42.1", data["amount"])
	assert.Equal(t, "discarded", data["status"])
	assert.Equal(t, "late", data["discard_reason"])
	assert.NotContains(t, data, "timed_out_at")

	reader.err = fmt.Errorf("Get: %w", domain.ErrAggregateNotFound)
	rr = httptest.NewRecorder()
	h.Get(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPaymentHandler_Events(t *testing.T) {
	id := uuid.New()
	occurred := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	reader := &fakeReader{records: []domain.Record{
		{AggregateID: id, Version: 1, Type: domain.EventTypePaymentRequested, OccurredAt: occurred,
			Event: domain.PaymentRequested{PaymentID: id, OrderID: uuid.New(), Amount: decimal.NewFromInt(10)}},
		{AggregateID: id, Version: 2, Type: domain.EventTypePaymentCompleted, OccurredAt: occurred.Add(time.Minute),
			Event: domain.PaymentCompleted{PaymentID: id}},
	}}
	h := NewPaymentHandler(&fakeCommands{}, reader, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()
	h.Events(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	events := decodeResponse(t, rr).Data.([]any)
	require.Len(t, events, 2)

	first := events[0].(map[string]any)
	assert.Equal(t, "payment.requested", first["type"])
	assert.Equal(t, float64(1), first["version"])
	assert.Equal(t, "10", first["data"].(map[string]any)["amount"])

	second := events[1].(map[string]any)
	assert.Equal(t, "payment.completed", second["type"])
	assert.Equal(t, id.String(), second["data"].(map[string]any)["payment_id"])
}
