package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tripnest/catalog/internal/config"
	"github.com/tripnest/catalog/internal/domain"
	httpapi "github.com/tripnest/catalog/internal/http"
	"github.com/tripnest/catalog/internal/logger"
	"github.com/tripnest/catalog/internal/query"
	"github.com/tripnest/catalog/internal/storage"
	"github.com/tripnest/catalog/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.Storage.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	store, err := storage.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := storage.Seed(ctx, store, cfg.Storage.SeedPath, log); err != nil {
		return err
	}

	defaults := query.DefaultDefaults()
	if cfg.QueryDefaultsPath != "" {
		defaults, err = query.LoadDefaultsFromFile(cfg.QueryDefaultsPath)
		if err != nil {
			log.Warn("use default query settings", "path", cfg.QueryDefaultsPath, "error", err)
		}
	}

	routes := map[domain.Domain]storage.Source{}
	if cfg.Upstream.HotelsURL != "" {
		routes[domain.DomainHotel] = &upstream.HotelSource{
			Client:   upstream.NewClient(cfg.Upstream.HotelsURL, cfg.Upstream.Timeout),
			City:     cfg.Upstream.City,
			PageSize: cfg.Upstream.PageSize,
			MaxPages: cfg.Upstream.MaxPages,
			Logger:   log,
		}
		log.Info("hotels served by upstream API", "url", cfg.Upstream.HotelsURL)
	}
	source := &storage.FallbackSource{
		Primary: &storage.Router{Default: store, Routes: routes},
		Logger:  log,
	}

	srv := httpapi.NewServer(query.NewEngine(defaults), source, store, log)
	srv.Limiter = httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	srv.BehindProxy = cfg.HTTP.BehindProxy

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API listening", "address", cfg.HTTP.Address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
