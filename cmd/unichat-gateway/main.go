// Command unichat-gateway exposes the unified client behind an
// OpenAI-compatible HTTP endpoint. Clients talk one wire dialect; the
// gateway routes each model name to its vendor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/omnillm/unichat/internal/config"
	"github.com/omnillm/unichat/internal/server"
	"github.com/omnillm/unichat/internal/telemetry"
	"github.com/omnillm/unichat/pkg/unichat"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "YAML config file")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracer("unichat-gateway", logger)
	if err != nil {
		logger.Error("init tracer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	opts := append(cfg.ClientOptions(),
		unichat.WithLogger(logger),
		unichat.WithTracing(),
	)
	client, err := unichat.New(opts...)
	if err != nil {
		logger.Error("create client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := server.NewHandler(client, cfg)

	r := chi.NewRouter()
	r.Use(server.RequestIDMiddleware)
	r.Use(server.LoggingMiddleware(logger))
	r.Post("/v1/chat/completions", handler.HandleChatCompletion)
	r.Get("/v1/models", handler.HandleModels)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", slog.Int("port", cfg.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("gateway stopped")
}
