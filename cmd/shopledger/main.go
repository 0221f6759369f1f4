package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shopledger/internal/config"
	"shopledger/internal/gateway/memory"
	"shopledger/internal/gateway/rest"
	apphttp "shopledger/internal/http"
	"shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/session"
	"shopledger/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	var gw session.Gateway
	switch cfg.DataBackend {
	case "memory":
		gw = memory.NewSeeded()
		logger.Info("initialized in-memory backend", "backend", cfg.DataBackend)
	default:
		gw = rest.New(cfg.APIBaseURL, cfg.APITimeout)
		logger.Info("initialized rest backend",
			"backend", cfg.DataBackend,
			log.FieldEndpoint, cfg.APIBaseURL)
	}

	var snapshots services.SnapshotStore
	store, err := storage.NewSnapshotStore(cfg.SnapshotDBPath)
	if err != nil {
		logger.Warn("snapshot store unavailable, persistence disabled",
			log.FieldError, err.Error())
	} else {
		snapshots = store
		defer store.Close()
	}

	sessions := session.NewManager(gw, cfg.SessionTTL, logger)
	srv := apphttp.NewServer(":"+cfg.Port, sessions, snapshots, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received",
			log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("starting shopledger",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
