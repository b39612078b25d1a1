package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope every failed request returns. Code is stable for clients;
// Message and Details are for humans.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers panics into a 500 carrying an incident id that also appears in the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				incident := uuid.NewString()
				GetLogger().Error("Unhandled panic",
					zap.String("incident", incident),
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "internal",
					Message: "Internal Server Error",
					Details: fmt.Sprintf("unexpected error, incident %s", incident),
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response without a machine code.
func JSONError(c *gin.Context, status int, message string, details string) {
	JSONErrorCode(c, status, "", message, details)
}

// JSONErrorCode sends the error envelope; server-side failures log at error level.
func JSONErrorCode(c *gin.Context, status int, code, message, details string) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("path", c.FullPath()),
		zap.String("details", details),
	}
	if status >= http.StatusInternalServerError {
		GetLogger().Error(message, fields...)
	} else {
		GetLogger().Warn(message, fields...)
	}
	c.JSON(status, ErrorResponse{Code: code, Message: message, Details: details})
}
