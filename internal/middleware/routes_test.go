package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestExcludeRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var handled []string
	r := gin.New()
	r.Use(
		ExcludeRoutes(func(c *gin.Context) { handled = append(handled, c.FullPath()) }, "/health"),
	)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/v1/gcp/delete/:project_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodDelete, "/api/v1/gcp/delete/alice-1700000000", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"/api/v1/gcp/delete/:project_id"}, handled)
}
