package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"miniflux_bot/internal/bot"
	"miniflux_bot/internal/config"
	"miniflux_bot/internal/miniflux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	var opts []miniflux.Option
	if cfg.MinifluxAPIKey != "" {
		opts = append(opts, miniflux.WithAPIKey(cfg.MinifluxAPIKey))
	} else {
		opts = append(opts, miniflux.WithBasicAuth(cfg.MinifluxUsername, cfg.MinifluxPassword))
	}
	feeds := miniflux.NewClient(cfg.MinifluxBaseURL, opts...)

	b, err := bot.New(cfg.TelegramBotToken, feeds, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "miniflux", cfg.MinifluxBaseURL)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
