package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/bdchat/internal/adapters/http"
	"github.com/kirillkom/bdchat/internal/bootstrap"
	"github.com/kirillkom/bdchat/internal/config"
	"github.com/kirillkom/bdchat/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("bdchat-api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.Chat, app.Topics, app.Metrics).Handler()
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers two sequential inference calls.
		WriteTimeout: 2*cfg.InferenceTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("api_listening", "addr", server.Addr, "chat_ready", app.Chat.Ready())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		slog.Error("api_server_failed", "error", err)
		app.Close()
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
	slog.Info("api_stopped")
}
