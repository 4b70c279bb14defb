package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go-user-directory/internal/app"
	"go-user-directory/internal/config"
	"go-user-directory/internal/logger"
	"go-user-directory/internal/middleware"
)

func main() {
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrConfiguration) {
			slog.Error("invalid configuration", "error", err)
		} else {
			slog.Error("failed to load config", "error", err)
		}
		os.Exit(1)
	}

	log, err := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel, requestIDAttrs)
	if err != nil {
		slog.Error("failed to configure logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

func requestIDAttrs(ctx context.Context) []slog.Attr {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		return []slog.Attr{slog.String("request_id", id)}
	}
	return nil
}
