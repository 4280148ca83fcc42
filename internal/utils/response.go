// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mintnprint/backend/internal/models"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errs []ValidationError) {
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", errs)
}

// AppErrorResponse maps the error taxonomy onto HTTP statuses: validation
// errors are the caller's fault, configuration errors are ours, upstream
// and network failures are the collaborator's.
func AppErrorResponse(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		InternalErrorResponse(c, err.Error())
		return
	}

	switch appErr.Kind {
	case models.ErrorKindValidation:
		ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", appErr.Message, appErr.Detail)
	case models.ErrorKindConfiguration:
		ErrorResponse(c, http.StatusInternalServerError, "CONFIGURATION_ERROR", appErr.Message, appErr.Detail)
	case models.ErrorKindNetwork:
		ErrorResponse(c, http.StatusGatewayTimeout, "NETWORK_ERROR", appErr.Message, appErr.Detail)
	default:
		ErrorResponse(c, http.StatusBadGateway, "UPSTREAM_ERROR", appErr.Message, appErr.Detail)
	}
}
