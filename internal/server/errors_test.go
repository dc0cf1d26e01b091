package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyErrorForLog(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errorType string
		errorCode string
	}{
		{name: "unavailable", err: fmt.Errorf("ping: %w", ErrServiceUnavailable), errorType: "dependency", errorCode: "service_unavailable"},
		{name: "deadline", err: context.DeadlineExceeded, errorType: "dependency", errorCode: "service_unavailable"},
		{name: "other", err: errors.New("boom"), errorType: "internal", errorCode: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errorType, errorCode := classifyErrorForLog(tt.err)
			assert.Equal(t, tt.errorType, errorType)
			assert.Equal(t, tt.errorCode, errorCode)
		})
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/fail", func(c *gin.Context) { AbortWithError(c, errors.New("boom")) })
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(ErrServiceUnavailable)
		c.String(http.StatusTeapot, "short")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"type":"internal_error","message":"internal server error"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short", rec.Body.String())
}
