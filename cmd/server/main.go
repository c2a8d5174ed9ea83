package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/aggregator"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/api"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/cache"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/notifications"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/scheduler"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/sources"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting live metrics service")

	// Snapshot store for the TikTok capture files
	var store storage.Store
	switch cfg.SnapshotBackend {
	case "azure":
		store, err = storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	default:
		store, err = storage.NewLocalStore(cfg.SnapshotDir)
	}
	if err != nil {
		logrus.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	// Shared outbound HTTP client with explicit retry policy
	client := httpclient.New(cfg.HTTPTimeout, cfg.RetryMax, cfg.RetryBackoff)

	// Aggregation core over the two platform adapters
	service := aggregator.NewService(cfg, cache.New(),
		sources.NewYouTubeSource(cfg.YouTubeAPIKey, cfg.YouTubeAPIBase, client),
		sources.NewTikTokSource(store, cfg.SnapshotDefault, cfg.SnapshotURL, client),
	)

	// Optional background sampler for watched streams
	notificationService := notifications.NewService(cfg)
	schedulerService := scheduler.NewService(cfg, service, notificationService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start sampler: %v", err)
	}
	defer schedulerService.Stop()

	handlers := api.NewHandlers(cfg, service)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handlers.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
