package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(LoggingMiddleware(zap.New(core), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/v1/gcp/delete/:project_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, logs.Len())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/gcp/delete/alice-1700000000", nil)
	req.Header.Set("X-CloudTasks-TaskName", "alice-1700000000")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/gcp/delete/:project_id", fields["route"])
	assert.Equal(t, "alice-1700000000", fields["task_name"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
