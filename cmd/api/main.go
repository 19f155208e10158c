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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/potsplit/settle-engine/internal/config"
	"github.com/potsplit/settle-engine/internal/engine"
	"github.com/potsplit/settle-engine/internal/handler"
	"github.com/potsplit/settle-engine/internal/logging"
	"github.com/potsplit/settle-engine/internal/middleware"
	"github.com/potsplit/settle-engine/internal/repository"
	"github.com/potsplit/settle-engine/internal/service"
	"github.com/potsplit/settle-engine/internal/settle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("settle-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eng := engine.New(engine.Params{
		Weights: settle.Weights{
			Simplicity:   cfg.WeightSimplicity,
			Fairness:     cfg.WeightFairness,
			Efficiency:   cfg.WeightEfficiency,
			Friendliness: cfg.WeightFriendliness,
		},
		ToleranceCents:    cfg.ToleranceCents,
		LargePaymentCents: cfg.LargePaymentCents,
		SearchBudget:      cfg.SearchNodeBudget,
		ProcessingBudget:  time.Duration(cfg.ProcessingBudgetMS) * time.Millisecond,
	})

	sessions := service.New(
		repository.NewSessionRepository(db),
		repository.NewPlayerRepository(db),
		repository.NewEntryRepository(db),
		repository.NewSettlementRepository(db),
		eng,
		cfg.ToleranceCents,
	)

	tokenTTL := time.Duration(cfg.OrganizerTokenTTLHours) * time.Hour
	sessionHandler := handler.NewSessionHandler(sessions, cfg.JWTSecret, tokenTTL)
	settlementHandler := handler.NewSettlementHandler(sessions)
	healthHandler := handler.NewHealthHandler(db)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/sessions", sessionHandler.Create)
	mux.HandleFunc("GET /api/v1/sessions/{id}", sessionHandler.Get)
	mux.Handle("POST /api/v1/sessions/{id}/players", authed(http.HandlerFunc(sessionHandler.AddPlayer)))
	mux.Handle("POST /api/v1/sessions/{id}/entries", authed(http.HandlerFunc(sessionHandler.RecordEntry)))
	mux.HandleFunc("GET /api/v1/sessions/{id}/balances", sessionHandler.Balances)
	mux.Handle("POST /api/v1/sessions/{id}/settlements", authed(http.HandlerFunc(settlementHandler.Settle)))
	mux.HandleFunc("GET /api/v1/sessions/{id}/settlements/latest", settlementHandler.Latest)
	mux.HandleFunc("GET /api/v1/sessions/{id}/settlements/compare", settlementHandler.Compare)
	mux.HandleFunc("GET /api/v1/sessions/{id}/settlements/recheck", settlementHandler.Recheck)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
