package main

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traveldocs-relay/internal/answer"
	"traveldocs-relay/internal/config"
	"traveldocs-relay/internal/http"
	"traveldocs-relay/internal/llm"
	"traveldocs-relay/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers travel-documentation questions (visas, passports, entry
// requirements) by relaying them to a generative-language provider.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Travel Docs Relay API
//   description: |
//     Relays travel-documentation questions, with optional chat history, to Gemini
//     and returns a structured Markdown answer with the raw provider payload.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

//go:embed static/index.html
var indexHTML string

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(llm.Settings{
		Provider:   cfg.LLMProvider,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		Timeout:    cfg.LLMTimeout,
	})
	if err := llmClient.Check(); err != nil {
		// Not fatal: every /ask call reports the same error until it is fixed.
		slog.Warn("LLM client is not ready", "error", err)
	}

	askService := service.NewAskService(llmClient, answer.NewInspector())

	// Create router with dependencies
	deps := &http.Deps{
		AskService:     askService,
		Checker:        llmClient,
		IndexHTML:      indexHTML,
		AllowedOrigins: cfg.CORSOrigins,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.GeminiBaseURL, "model", cfg.GeminiModel, "timeout", cfg.LLMTimeout)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
