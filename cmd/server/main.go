package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartswap/backend/config"
	"github.com/smartswap/backend/internal/app"
	httpDelivery "github.com/smartswap/backend/internal/delivery/http"
	"github.com/smartswap/backend/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "smartswap-backend",
	})

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting smartswap backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Providers{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise application")
	}
	defer a.Close()

	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("LLM API key not configured; context suggestions are disabled")
	}
	if cfg.Embedding.APIKey == "" {
		logger.Warn().Msg("embedding API key not configured; similarity suggestions are disabled")
	}

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Catalog:     a.Catalog,
		Engine:      a.Engine,
		Suggestions: a.Suggestions,
		Feedback:    a.FeedbackService,
		Embeddings:  a.Embeddings,
	}, logger)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
