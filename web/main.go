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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/amosov/newsroom/internal/app"
	"github.com/amosov/newsroom/internal/config"
	"github.com/amosov/newsroom/internal/ingest"
	"github.com/amosov/newsroom/internal/logger"
	"github.com/amosov/newsroom/internal/session"
	"github.com/amosov/newsroom/internal/store"
	"github.com/amosov/newsroom/internal/synth"
)

func main() {
	// Missing .env is fine; production sets the environment directly.
	_ = godotenv.Load()

	log := logger.New("web")
	cfg, err := config.LoadWeb()
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

	srv := &server{
		log:      log,
		cfg:      cfg,
		svc:      svc,
		sessions: session.NewManager(cfg.SessionCapacity, cfg.SessionTTL),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(srv.withSession)

	r.Get("/health", srv.handleHealth)
	r.Get("/", srv.handleIndex)
	r.Get("/api/news", srv.handleAPINews)
	r.Post("/login", srv.handleLogin)
	r.Post("/logout", srv.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(srv.requireAdmin)
		r.Get("/", srv.handleAdmin)
		r.Post("/feeds", srv.handleAddFeed)
		r.Post("/feeds/delete", srv.handleRemoveFeed)
		r.Post("/analyze", srv.handleAnalyze)
	})

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Analysis runs inside the request, and the LLM call alone can take
		// minutes.
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("web server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
