package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/amosov/newsroom/internal/app"
	"github.com/amosov/newsroom/internal/config"
	"github.com/amosov/newsroom/internal/ingest"
	"github.com/amosov/newsroom/internal/logger"
	"github.com/amosov/newsroom/internal/store"
	"github.com/amosov/newsroom/internal/synth"
)

// Runs a single fetch-synthesize-save cycle. Meant for cron, so the web
// dashboard always has fresh data without an admin clicking the button.
func main() {
	_ = godotenv.Load()

	log := logger.New("analyze")
	cfg, err := config.LoadAnalyze()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	docs, err := store.New(cfg.GitHubToken, cfg.GitHubRepo, log)
	if err != nil {
		log.Error("init store", slog.Any("err", err))
		os.Exit(1)
	}

	svc := app.New(
		docs,
		ingest.New(cfg.FetchWindow, log),
		synth.New(synth.NewGemini(cfg.GeminiKey, cfg.GeminiModel, log), log),
		nil,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, cfg.SynthTimeout)
	defer cancel()

	count, err := svc.Analyze(runCtx)
	switch {
	case errors.Is(err, app.ErrNoArticles):
		log.Info("nothing to analyze")
	case err != nil:
		log.Error("analysis failed", slog.Any("err", err))
		os.Exit(1)
	default:
		log.Info("analysis complete", slog.Int("articles", count))
	}
}
