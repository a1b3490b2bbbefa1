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

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/config"
	"github.com/phambaophuc/image-optimizer/internal/http/handlers"
	"github.com/phambaophuc/image-optimizer/internal/http/routes"
	"github.com/phambaophuc/image-optimizer/internal/services/batch"
	"github.com/phambaophuc/image-optimizer/internal/services/cache"
	"github.com/phambaophuc/image-optimizer/internal/services/events"
	"github.com/phambaophuc/image-optimizer/internal/services/processor"
	"github.com/phambaophuc/image-optimizer/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	backend, err := newBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage backend", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	gateway, err := storage.NewGateway(ctx, backend, logger,
		storage.WithDownloadTTL(cfg.Storage.DownloadURLTTL))
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}

	opts := []batch.Option{}

	if cfg.Redis.Addr != "" {
		manifestCache := cache.NewManifestCache(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		defer manifestCache.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := manifestCache.Ping(pingCtx); err != nil {
			// Continue without the cache; reads fall through to storage
			logger.Warn("Redis unavailable, manifest cache disabled", zap.Error(err))
		} else {
			opts = append(opts, batch.WithCache(manifestCache))
		}
		pingCancel()
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Warn("Failed to initialize event publisher", zap.Error(err))
		} else {
			defer publisher.Close()
			logger.Info("Event publisher ready",
				zap.String("exchange", cfg.RabbitMQ.Exchange),
				zap.String("status", publisher.HealthCheck()))
			opts = append(opts, batch.WithPublisher(publisher))
		}
	}

	batchService := batch.NewService(processor.NewImageProcessor(), gateway, logger, opts...)

	// Initialize handlers
	batchHandler := handlers.NewBatchHandler(batchService, logger, cfg)

	router := routes.NewRouter(batchHandler, logger, cfg.Upload.MaxFileSize)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("storage_backend", cfg.Storage.Backend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		return storage.NewS3Backend(storage.S3Options{
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			UseSSL:        cfg.S3.UseSSL,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			PublicRead:    cfg.S3.PublicRead,
		})
	case config.BackendSupabase:
		return storage.NewSupabaseBackend(cfg.Supabase.URL, cfg.Supabase.KEY, cfg.Supabase.BUCKET)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
