package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/payments-es/internal/config"
	"github.com/josh-kwaku/payments-es/internal/handler"
	"github.com/josh-kwaku/payments-es/internal/logging"
	"github.com/josh-kwaku/payments-es/internal/middleware"
	"github.com/josh-kwaku/payments-es/internal/service/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("payments-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to initialise dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	repo := payment.NewRepository(app.store)
	commands, err := payment.NewCommandHandler(repo, cfg.CommandMaxAttempts)
	if err != nil {
		slog.Error("failed to build command handler", "error", err)
		os.Exit(1)
	}
	payments := handler.NewPaymentHandler(commands, payment.NewService(repo), nil)

	if app.relay != nil {
		go app.relay.Start(ctx)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, payments, app.health)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(mux, middleware.Tracing, middleware.Logging(logger), middleware.Recovery),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "event_store", cfg.EventStore, "relay", app.relay != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func registerRoutes(mux *http.ServeMux, payments *handler.PaymentHandler, health *handler.HealthHandler) {
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)

	mux.HandleFunc("POST /api/v1/payments", payments.Create)
	mux.HandleFunc("GET /api/v1/payments/{id}", payments.Get)
	mux.HandleFunc("GET /api/v1/payments/{id}/events", payments.Events)
	mux.HandleFunc("PUT /api/v1/payments/{id}/complete", payments.Complete)
	mux.HandleFunc("DELETE /api/v1/payments/{id}", payments.Discard)
	mux.HandleFunc("POST /api/v1/payments/{id}/timeout", payments.TimeOut)
}
