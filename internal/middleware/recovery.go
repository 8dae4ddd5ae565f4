package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"lawgic/internal/model"
	"lawgic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logger.Fields{
					"request_id": GetRequestID(c),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprintf("%v", err),
					"stack":      string(debug.Stack()),
				}).Error("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{
					Error: "An unexpected error occurred.",
					Type:  "internal",
				})
			}
		}()

		c.Next()
	}
}
