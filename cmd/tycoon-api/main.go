package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tycoon/internal/api"
	"tycoon/internal/config"
	"tycoon/internal/session"
	"tycoon/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	params, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Error("load tuning failed", "err", err)
		os.Exit(1)
	}

	st, kind, err := store.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Error("store open failed", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store ready", "backend", kind)

	games, err := session.NewManager(ctx, st, params, session.Options{
		TickEvery:            cfg.TickEvery,
		DefaultCompetitors:   cfg.DefaultCompetitors,
		IdempotencyCacheSize: cfg.IdempotencyCacheSize,
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", "err", err)
		os.Exit(1)
	}

	server := api.New(cfg, logger, games)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("tycoon api listening", "addr", cfg.Addr, "tick_every", cfg.TickEvery.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := games.Close(closeCtx); err != nil {
		logger.Error("final save failed", "err", err)
	}
	logger.Info("tycoon api stopped")
}

func logLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
