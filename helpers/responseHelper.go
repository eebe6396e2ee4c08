package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes surfaced in the response envelope.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError pairs an HTTP status with a stable error code.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message}
}

func ErrInvalidInput(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message)
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func ErrConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message)
}

func ErrInternal(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message)
}

// HealthPayload is the body served by the health endpoint. The connection
// count rides along for dashboards.
func HealthPayload(connections int, now time.Time) gin.H {
	return gin.H{
		"status":      "healthy",
		"timestamp":   now.UTC().Format(time.RFC3339),
		"connections": connections,
	}
}

// RespondSuccess writes the stable success envelope.
func RespondSuccess(c *gin.Context, statusCode int, message string, data gin.H) {
	body := gin.H{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(statusCode, body)
}

// RespondError writes the stable failure envelope. 4xx errors use status
// "fail", everything else "error".
func RespondError(c *gin.Context, err error) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = ErrInternal("internal server error")
	}
	status := "error"
	if appErr.StatusCode >= 400 && appErr.StatusCode < 500 {
		status = "fail"
	}
	body := gin.H{
		"status":  status,
		"message": appErr.Message,
		"error":   gin.H{"code": appErr.Code, "message": appErr.Message},
	}
	if gin.Mode() != gin.ReleaseMode && appErr != err {
		body["error"].(gin.H)["detail"] = err.Error()
	}
	c.JSON(appErr.StatusCode, body)
}
