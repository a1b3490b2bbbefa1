package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"go.uber.org/zap"
)

// ErrorHandler turns a panic in any handler into a 500 envelope and logs it
// with the route and batch it happened on.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered interface{}) {
		fields := []zap.Field{
			zap.Any("panic", recovered),
			zap.String("route", ctx.FullPath()),
			zap.String("method", ctx.Request.Method),
			zap.Stack("stack"),
		}
		if batchID := ctx.Param("batch_id"); batchID != "" {
			fields = append(fields, zap.String("batch_id", batchID))
		}
		logger.Error("Panic recovered", fields...)

		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Error:   "Internal server error",
		})
	})
}
