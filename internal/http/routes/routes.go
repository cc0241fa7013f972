package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosense-backend/internal/http/handlers"
	"photosense-backend/internal/http/middleware"
)

type Router struct {
	handler        *handlers.AnalysisHandler
	logger         *zap.Logger
	uploadsDir     string
	requestTimeout time.Duration
}

func NewRouter(
	handler *handlers.AnalysisHandler,
	logger *zap.Logger,
	uploadsDir string,
	requestTimeout time.Duration,
) *Router {
	return &Router{
		handler:        handler,
		logger:         logger,
		uploadsDir:     uploadsDir,
		requestTimeout: requestTimeout,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Timeout(r.requestTimeout))

	router.POST("/upload", r.handler.Upload)
	router.GET("/history", r.handler.History)
	router.POST("/history/clear", r.handler.ClearHistory)
	router.POST("/download/:format", r.handler.Export)
	router.GET("/health", r.handler.HealthCheck)

	// Image assets referenced by analysis responses.
	router.Static("/uploads", r.uploadsDir)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image analysis service is running",
		})
	})

	return router
}
