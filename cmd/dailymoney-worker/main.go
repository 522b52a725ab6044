// The worker runs remote sync on a schedule so a phone that never opens the
// app still gets its log mirrored.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"dailymoney/internal/config"
	"dailymoney/internal/remote"
	"dailymoney/internal/remote/drive"
	"dailymoney/internal/remote/gist"
	"dailymoney/internal/store"
	"dailymoney/internal/syncer"
)

const syncTimeout = 2 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting dailymoney-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker always uses the durable backend: syncing a memory store
	// that nothing else can see is pointless.
	kv, err := store.NewSQLiteKV(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer kv.Close()
	st := store.New(kv)

	documents, err := openRemote(context.Background(), cfg, st)
	if err != nil {
		logger.Error("Failed to initialize remote backend", "error", err, "backend", cfg.RemoteBackend)
		os.Exit(1)
	}
	if documents == nil {
		logger.Error("Remote sync is not configured - nothing to do", "backend", cfg.RemoteBackend)
		os.Exit(1)
	}

	sy := syncer.New(documents, st)

	runSync := func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		merged, err := sy.Run(ctx)
		if err != nil {
			logger.Error("Scheduled sync failed", "error", err)
			return
		}
		logger.Info("Scheduled sync complete", "transactions", len(merged))
	}

	// One sync right away, then on the schedule.
	runSync()

	c := cron.New()
	if _, err := c.AddFunc(cfg.SyncSchedule, runSync); err != nil {
		logger.Error("Failed to schedule sync", "error", err, "schedule", cfg.SyncSchedule)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Sync scheduled", "schedule", cfg.SyncSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	// Let an in-flight sync finish before exiting.
	<-c.Stop().Done()
	logger.Info("Worker shutdown complete")
}

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
		return nil, nil
	}
}
