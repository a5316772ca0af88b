package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthCheck is one dependency probed by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

type pendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

type HealthHandler struct {
	checks []HealthCheck
	outbox pendingCounter
}

// NewHealthHandler builds the health endpoints. outbox may be nil when the
// process runs without a durable store.
func NewHealthHandler(outbox pendingCounter, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, outbox: outbox}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		checks[c.Name] = "ok"
		if err := c.Probe(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", c.Name, "error", err)
			checks[c.Name] = "down"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	body := map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}

	if h.outbox != nil {
		if pending, err := h.outbox.CountPending(r.Context()); err != nil {
			slog.Warn("readiness: outbox count failed", "error", err)
		} else {
			body["outbox_pending"] = pending
		}
	}

	RespondJSON(w, httpStatus, body)
}
