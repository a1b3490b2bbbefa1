package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/config"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"go.uber.org/zap"
)

const (
	filesParamKey   = "files"
	batchIDParamKey = "batch_id"
)

type batchService interface {
	Process(ctx context.Context, files []models.UploadFile) (*models.Manifest, error)
	Get(ctx context.Context, batchID string) (*models.Manifest, error)
	List(ctx context.Context) ([]models.Manifest, error)
	DownloadURL(ctx context.Context, batchID string) (string, error)
	Delete(ctx context.Context, batchID string) error
}

type BatchHandler struct {
	batches batchService
	logger  *zap.Logger
	config  *config.Config
}

func NewBatchHandler(
	batches batchService,
	logger *zap.Logger,
	config *config.Config,
) *BatchHandler {
	return &BatchHandler{
		batches: batches,
		logger:  logger,
		config:  config,
	}
}

// === MAIN API ENDPOINTS ===

// ProcessImages accepts up to eight product photos and returns the manifest
// of the stored batch.
func (h *BatchHandler) ProcessImages(c *gin.Context) {
	headers, err := h.parseMultipartFiles(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.validateFiles(headers); err != nil {
		h.respondError(c, err)
		return
	}

	files, err := h.readFiles(headers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	manifest, err := h.batches.Process(c.Request.Context(), files)
	if err != nil {
		h.logger.Error("Batch processing failed", zap.Error(err))
		h.respondError(c, err)
		return
	}

	h.respondOK(c, manifest)
}

func (h *BatchHandler) GetBatch(c *gin.Context) {
	manifest, err := h.batches.Get(c.Request.Context(), c.Param(batchIDParamKey))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, manifest)
}

func (h *BatchHandler) ListBatches(c *gin.Context) {
	manifests, err := h.batches.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Listing batches failed", zap.Error(err))
		h.respondError(c, err)
		return
	}

	h.respondOK(c, manifests)
}

func (h *BatchHandler) GetDownloadURL(c *gin.Context) {
	batchID := c.Param(batchIDParamKey)

	url, err := h.batches.DownloadURL(c.Request.Context(), batchID)
	if err != nil {
		h.logger.Error("Download URL generation failed", zap.String("batch_id", batchID), zap.Error(err))
		h.respondError(c, err)
		return
	}

	h.respondOK(c, models.DownloadResponse{DownloadURL: url})
}

func (h *BatchHandler) DeleteBatch(c *gin.Context) {
	batchID := c.Param(batchIDParamKey)

	if err := h.batches.Delete(c.Request.Context(), batchID); err != nil {
		h.logger.Error("Batch deletion failed", zap.String("batch_id", batchID), zap.Error(err))
		h.respondError(c, err)
		return
	}

	h.respondOK(c, models.DeleteResponse{BatchID: batchID, Deleted: true})
}

// HealthCheck is a static liveness probe.
func (h *BatchHandler) HealthCheck(c *gin.Context) {
	h.respondOK(c, models.HealthCheck{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

func (h *BatchHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Amazon FBA Image Optimizer API"})
}
