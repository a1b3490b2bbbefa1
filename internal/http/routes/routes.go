package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/http/handlers"
	"github.com/phambaophuc/image-optimizer/internal/http/middleware"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file payloads themselves.
const multipartOverhead = 1 << 20

type Router struct {
	batchHandler  *handlers.BatchHandler
	logger        *zap.Logger
	maxUploadSize int64
}

func NewRouter(
	batchHandler *handlers.BatchHandler,
	logger *zap.Logger,
	maxFileSize int64,
) *Router {
	return &Router{
		batchHandler:  batchHandler,
		logger:        logger,
		maxUploadSize: maxFileSize*models.MaxBatchImages + multipartOverhead,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	api := router.Group("/api")
	{
		api.GET("/health", r.batchHandler.HealthCheck)
		api.POST("/process-images", middleware.RequireMultipart(r.maxUploadSize), r.batchHandler.ProcessImages)
		api.GET("/batches", r.batchHandler.ListBatches)

		batches := api.Group("/batch/:batch_id")
		{
			batches.GET("", r.batchHandler.GetBatch)
			batches.GET("/download-url", r.batchHandler.GetDownloadURL)
			batches.DELETE("", r.batchHandler.DeleteBatch)
		}
	}

	router.GET("/", r.batchHandler.Root)

	return router
}
