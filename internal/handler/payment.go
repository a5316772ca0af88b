package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payments-es/internal/domain"
	"github.com/josh-kwaku/payments-es/internal/logging"
	"github.com/josh-kwaku/payments-es/internal/service/payment"
)

type commandHandler interface {
	Handle(ctx context.Context, cmd domain.Command) (payment.Result, error)
}

type paymentReader interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Payment, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.Record, error)
}

// IDGenerator supplies ids for newly requested payments.
type IDGenerator func() uuid.UUID

type PaymentHandler struct {
	commands commandHandler
	payments paymentReader
	newID    IDGenerator
}

func NewPaymentHandler(commands commandHandler, payments paymentReader, newID IDGenerator) *PaymentHandler {
	if newID == nil {
		newID = uuid.New
	}
	return &PaymentHandler{commands: commands, payments: payments, newID: newID}
}

type createPaymentRequest struct {
	OrderID string           `json:"order_id"`
	Amount  *decimal.Decimal `json:"amount"`
}

func (r createPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.OrderID == "" {
		errs = append(errs, FieldError{Field: "order_id", Message: "required"})
	} else if _, err := uuid.Parse(r.OrderID); err != nil {
		errs = append(errs, FieldError{Field: "order_id", Message: "must be a UUID"})
	}

	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}

	return errs
}

type discardPaymentRequest struct {
	Reason string `json:"reason"`
}

type timeOutPaymentRequest struct {
	TimedOutAt *time.Time `json:"timed_out_at"`
}

func (r timeOutPaymentRequest) Validate() []FieldError {
	if r.TimedOutAt == nil {
		return []FieldError{{Field: "timed_out_at", Message: "required"}}
	}
	return nil
}

type commandResultDTO struct {
	ID      uuid.UUID `json:"id"`
	Version int64     `json:"version"`
	Status  string    `json:"status"`
}

type paymentDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Version       int64           `json:"version"`
	DiscardReason string          `json:"discard_reason,omitempty"`
	TimedOutAt    *time.Time      `json:"timed_out_at,omitempty"`
}

type eventDTO struct {
	Version    int64            `json:"version"`
	Type       domain.EventType `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       domain.Event     `json:"data"`
}

func toCommandResultDTO(res payment.Result) commandResultDTO {
	return commandResultDTO{ID: res.PaymentID, Version: res.Version, Status: string(res.Status)}
}

func toPaymentDTO(p domain.Payment) paymentDTO {
	return paymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		Version:       p.Version,
		DiscardReason: p.DiscardReason,
		TimedOutAt:    p.TimedOutAt,
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.commands.Handle(r.Context(), domain.RequestPayment{
		PaymentID: h.newID(),
		OrderID:   uuid.MustParse(req.OrderID),
		Amount:    *req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment request failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", res.PaymentID))
	RespondSuccess(w, http.StatusCreated, toCommandResultDTO(res))
}

func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentIDFromPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, domain.CompletePayment{PaymentID: id})
}

func (h *PaymentHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentIDFromPath(w, r)
	if !ok {
		return
	}

	var req discardPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	h.dispatch(w, r, domain.DiscardPayment{PaymentID: id, Reason: req.Reason})
}

func (h *PaymentHandler) TimeOut(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentIDFromPath(w, r)
	if !ok {
		return
	}

	var req timeOutPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	h.dispatch(w, r, domain.TimeOutPayment{PaymentID: id, TimedOutAt: *req.TimedOutAt})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentIDFromPath(w, r)
	if !ok {
		return
	}

	p, err := h.payments.Get(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment lookup failed", "payment_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}

func (h *PaymentHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentIDFromPath(w, r)
	if !ok {
		return
	}

	records, err := h.payments.History(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment history lookup failed", "payment_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	events := make([]eventDTO, len(records))
	for i, rec := range records {
		events[i] = eventDTO{Version: rec.Version, Type: rec.Type, OccurredAt: rec.OccurredAt, Data: rec.Event}
	}
	RespondSuccess(w, http.StatusOK, events)
}

func (h *PaymentHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd domain.Command) {
	res, err := h.commands.Handle(r.Context(), cmd)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment command failed", "payment_id", cmd.AggregateID(), "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCommandResultDTO(res))
}

func paymentIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrPaymentNotFound, nil)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody treats an empty body as an empty request.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
