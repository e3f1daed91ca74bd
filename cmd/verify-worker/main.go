package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/inventory-billing/internal/app/verifyworker"
	"github.com/magabrotheeeer/inventory-billing/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting verify-worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := verifyworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize verify-worker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("verify-worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("verify-worker stopped gracefully")
}
