package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/models"
)

// RequireMultipart rejects uploads that are not multipart/form-data and caps
// the request body at maxBody bytes.
func RequireMultipart(maxBody int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Error:   "expected multipart/form-data upload",
			})
			return
		}

		if maxBody > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBody)
		}
		ctx.Next()
	}
}
