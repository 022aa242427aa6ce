package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// Success sends a successful response
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response with a custom message
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
	})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 error
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalServerError sends a 500 error
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// Conflict sends a 409 error
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// FromError maps domain errors onto HTTP statuses. Unknown errors
// become a 500 with a generic message so internals never leak.
func FromError(c *gin.Context, err error) {
	var (
		rateLimited *common.RateLimitedError
		duplicate   *common.DuplicateSubmissionError
		deadline    *common.DeadlineExpiredError
		validation  *common.ValidationError
		ineligible  *common.IneligibleParticipantError
		permission  *common.PermissionDeniedError
		notFound    *common.NotFoundError
		storage     *common.StorageError
	)

	switch {
	case errors.As(err, &rateLimited):
		c.Header("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())))
		Error(c, http.StatusTooManyRequests, rateLimited.Error())
	case errors.As(err, &duplicate):
		Conflict(c, duplicate.Error())
	case errors.Is(err, submission.ErrSlotOccupied):
		Conflict(c, "submission slot is already occupied")
	case errors.As(err, &deadline):
		Error(c, http.StatusGone, deadline.Error())
	case errors.As(err, &validation):
		BadRequest(c, validation.Error())
	case errors.As(err, &ineligible):
		Forbidden(c, ineligible.Error())
	case errors.As(err, &permission):
		Forbidden(c, permission.Error())
	case errors.As(err, &notFound):
		NotFound(c, notFound.Error())
	case errors.As(err, &storage):
		Error(c, http.StatusBadGateway, "artifact storage is unavailable")
	default:
		InternalServerError(c, "internal server error")
	}
}
