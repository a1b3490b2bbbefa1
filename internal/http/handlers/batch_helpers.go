package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/phambaophuc/image-optimizer/pkg/utils"
)

// === REQUEST PARSING ===

func (h *BatchHandler) parseMultipartFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse form data: %w", models.ErrValidation, err)
	}

	files := form.File[filesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images provided", models.ErrValidation)
	}
	if len(files) > models.MaxBatchImages {
		return nil, fmt.Errorf("%w: at most %d images per batch, got %d",
			models.ErrValidation, models.MaxBatchImages, len(files))
	}

	return files, nil
}

func (h *BatchHandler) validateFiles(files []*multipart.FileHeader) error {
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !utils.IsValidImageType(contentType) {
			return fmt.Errorf("%w: unsupported file type %q for %s", models.ErrValidation, contentType, fh.Filename)
		}
		if limit := h.config.Upload.MaxFileSize; limit > 0 && fh.Size > limit {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", models.ErrValidation, fh.Filename, fh.Size, limit)
		}
	}
	return nil
}

// === FILE OPERATIONS ===

func (h *BatchHandler) readFiles(files []*multipart.FileHeader) ([]models.UploadFile, error) {
	uploads := make([]models.UploadFile, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, models.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// === RESPONSE HANDLING ===

func (h *BatchHandler) respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

func (h *BatchHandler) respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), models.APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
