package handler

import (
	"errors"
	"net/http"

	"lawgic/internal/model"
	"lawgic/internal/service"
	"lawgic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorStatus maps a service error to its HTTP status and a short type tag.
func errorStatus(err error) (int, string) {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case model.IsDocumentParse(err):
		return http.StatusUnprocessableEntity, "document"
	case model.IsGateway(err):
		return http.StatusBadGateway, "gateway"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func userMessage(err error) string {
	if errors.Is(err, service.ErrSessionNotFound) {
		return "Session not found."
	}
	return model.UserMessage(err)
}

func respondError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, model.ErrorResponse{Error: userMessage(err), Type: kind})
}
