package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosense-backend/internal/config"
	"photosense-backend/internal/http/handlers"
	"photosense-backend/internal/http/routes"
	"photosense-backend/internal/services/history"
	"photosense-backend/internal/services/ingest"
	"photosense-backend/internal/services/pipeline"
	"photosense-backend/internal/services/registry"
	"photosense-backend/internal/services/storage"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	assets, err := storage.NewAssetStore(cfg.Storage.UploadPath, "/uploads")
	if err != nil {
		logger.Fatal("Failed to initialize asset store", zap.Error(err))
	}

	historyStore, err := history.NewStore(cfg.History.Path, cfg.History.MaxItems, assets, logger)
	if err != nil {
		logger.Fatal("Failed to initialize history store", zap.Error(err))
	}

	visionClient, err := registry.NewOllamaClient(cfg.Vision.OllamaURL)
	if err != nil {
		logger.Fatal("Failed to initialize vision client", zap.Error(err))
	}
	modelRegistry := registry.New(visionClient, cfg.Vision, logger)

	cache := storage.NewCache(cfg.Redis)
	if cache == nil {
		logger.Info("Analysis cache disabled (no REDIS_ADDR configured)")
	}

	pipe := pipeline.New(modelRegistry, assets, cache, cfg.Server.MaxConcurrent, logger)
	ingester := ingest.New(cfg.Storage.MaxFileSize, cfg.Storage.AllowedTypes)

	// Initialize handlers
	handler := handlers.NewAnalysisHandler(ingester, pipe, historyStore, logger, cfg)
	router := routes.NewRouter(handler, logger, assets.Dir(), cfg.Server.RequestTimeout)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
