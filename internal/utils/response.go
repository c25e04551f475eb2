package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeServerError  = "SERVER_ERROR"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SendCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SendSuccessWithMeta(c *gin.Context, message string, data, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func SendError(c *gin.Context, statusCode int, code, message string, details ...FieldError) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func SendValidationError(c *gin.Context, message string, details ...FieldError) {
	SendError(c, http.StatusBadRequest, CodeValidation, message, details...)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, CodeNotFound, message)
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func SendForbidden(c *gin.Context, message string) {
	SendError(c, http.StatusForbidden, CodeForbidden, message)
}

func SendConflict(c *gin.Context, message string) {
	SendError(c, http.StatusConflict, CodeConflict, message)
}

// SendInternalError hides the cause from the client; callers log it.
func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, CodeServerError, message)
}
