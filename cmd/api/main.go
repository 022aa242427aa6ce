package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandwave/ambassador-api/internal/config"
	"github.com/brandwave/ambassador-api/internal/logger"
	"github.com/brandwave/ambassador-api/internal/server"
	"github.com/brandwave/ambassador-api/internal/storage"
	"github.com/brandwave/ambassador-api/internal/storage/objectstore"
	"github.com/brandwave/ambassador-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel)
	log := logger.Get()

	log.Info("Starting Ambassador API")

	container, err := storage.DefaultFactory().CreateContainer(cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	artifacts, err := objectstore.New(&cfg.ObjectStore)
	if err != nil {
		log.Error("Failed to initialize object store", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, container, artifacts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info("Received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
