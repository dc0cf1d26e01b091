package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var ErrServiceUnavailable = errors.New("service_unavailable")

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorHandlingMiddleware renders the last handler error unless a response
// was already written.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, resp := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, resp)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	var resp errorResponse
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		resp.Error.Type = "service_unavailable"
		resp.Error.Message = "service unavailable"
		return http.StatusServiceUnavailable, resp
	}
	resp.Error.Type = "internal_error"
	resp.Error.Message = "internal server error"
	return http.StatusInternalServerError, resp
}

// classifyErrorForLog maps a handler error to the error_type/error_code log fields.
func classifyErrorForLog(err error) (string, string) {
	status, resp := mapError(err)
	if status == http.StatusServiceUnavailable {
		return "dependency", resp.Error.Type
	}
	return "internal", resp.Error.Type
}
