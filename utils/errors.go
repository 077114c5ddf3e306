package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shikkha-content-platform/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithConflict sends a 409 Conflict error
func RespondWithConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "conflict", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps a service-layer error onto the matching
// status code so handlers stay thin.
func RespondWithServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondWithBadRequest(c, verr.Message, gin.H{"field": verr.Field})
	case errors.Is(err, services.ErrNotFound):
		RespondWithNotFound(c, "resource not found")
	case errors.Is(err, services.ErrConflict):
		RespondWithConflict(c, "version conflict, reload and retry")
	case errors.Is(err, services.ErrExtractionFailed):
		RespondWithError(c, http.StatusBadGateway, "extraction_failed", "the vision model call failed", nil)
	case errors.Is(err, services.ErrInvalidResponseFormat):
		RespondWithError(c, http.StatusBadGateway, "invalid_model_response", "the model returned an unusable document", nil)
	default:
		RespondWithInternalError(c, "internal error", nil)
	}
}
