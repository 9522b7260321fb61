package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ratewalk/models"
)

// asWalkError returns err's WalkError, wrapping unknown errors as INTERNAL_ERROR.
func asWalkError(err error) *models.WalkError {
	var walkErr *models.WalkError
	if errors.As(err, &walkErr) {
		return walkErr
	}
	return models.NewWalkError(models.ErrCodeInternal, err.Error(), err)
}

// respondError maps a WalkError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	walkErr := asWalkError(err)
	c.JSON(mapErrorToStatus(walkErr), gin.H{
		"success": false,
		"error":   walkErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.WalkError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeActionFailed, models.ErrCodeExtraction:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash, models.ErrCodeCanceled:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}
