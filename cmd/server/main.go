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

	"github.com/hongminglow/cinevault-be/internal/config"
	"github.com/hongminglow/cinevault-be/internal/server"
	"github.com/hongminglow/cinevault-be/internal/storage"
	"github.com/hongminglow/cinevault-be/internal/storage/jsonfile"
	"github.com/hongminglow/cinevault-be/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}
	if cfg.OMDBAPIKey == "" {
		logger.Warn("OMDB_API_KEY is empty; proxied catalog requests will be rejected upstream")
	}

	ctx := context.Background()
	userStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("init storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	srv := server.New(cfg, userStore, logger)
	if err := srv.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Error("seed admin account", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("cinevault backend listening", "addr", cfg.HTTPAddress(), "driver", cfg.StorageDriver, "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.UserStore, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := jsonfile.NewUserStore(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}
