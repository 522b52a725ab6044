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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dailymoney/internal/budget"
	"dailymoney/internal/config"
	apphttp "dailymoney/internal/http"
	"dailymoney/internal/remote"
	"dailymoney/internal/remote/drive"
	"dailymoney/internal/remote/gist"
	remotemem "dailymoney/internal/remote/memory"
	"dailymoney/internal/store"
	"dailymoney/internal/syncer"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeKV()
	st := store.New(kv)
	logger.Info("Initialized data backend", "backend", cfg.DataBackend)

	documents, err := openRemote(context.Background(), cfg, st)
	if err != nil {
		logger.Error("Failed to initialize remote backend", "error", err, "backend", cfg.RemoteBackend)
		os.Exit(1)
	}
	if documents == nil {
		logger.Info("Remote sync disabled - no credentials provided", "backend", cfg.RemoteBackend)
	}

	allocator := budget.NewAllocator(st)
	sy := syncer.New(documents, st)

	srv := apphttp.NewServer(":"+cfg.Port, st, allocator, sy)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	g, gctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		logger.Info("Starting dailymoney server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
			return nil
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func openKV(cfg *config.Config) (store.KV, func(), error) {
	switch cfg.DataBackend {
	case "sqlite":
		kv, err := store.NewSQLiteKV(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return store.NewMemoryKV(), func() {}, nil
	}
}

// openRemote wires the configured remote document backend. A nil store means
// sync is disabled until credentials show up (they can also arrive later via
// the settings endpoint, but that takes a restart to pick up here).
func openRemote(ctx context.Context, cfg *config.Config, st *store.Store) (remote.DocumentStore, error) {
	switch cfg.RemoteBackend {
	case "gist":
		token := cfg.GistToken
		if token == "" {
			stored, err := st.Token(ctx)
			if err != nil {
				return nil, err
			}
			token = stored
		}
		if token == "" {
			return nil, nil
		}
		return gist.New(token), nil
	case "drive":
		client, err := drive.NewFromEnv(ctx)
		if errors.Is(err, drive.ErrNoCredentials) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return remotemem.New(), nil
	}
}
