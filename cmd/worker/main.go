package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/reviewsentiment/config"
	"github.com/spacesedan/reviewsentiment/internal/app"
	"github.com/spacesedan/reviewsentiment/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to initialize",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.RunWorker(ctx); err != nil {
		slog.Error("[Main] Worker stopped",
			slog.String("error", err.Error()))
		a.Close()
		os.Exit(1)
	}
	slog.Info("[Main] Shutdown complete")
}
