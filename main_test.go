package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/cfg"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/handlers"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	gin.SetMode(gin.TestMode)

	swagger, err := api.GetSwagger()
	require.NoError(t, err)

	config := cfg.Config{
		Environment:          "local",
		EnableGCPProvisioner: true,
		EnableAWSProvisioner: true,
	}

	s := NewGinServer(t.Context(), config, telemetry.NewNoopClient(), zaptest.NewLogger(t), &handlers.APIStore{}, swagger)

	return s.Handler
}

func TestValidatorRejectsInvalidBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "missing user email", path: "/api/v1/gcp/create", body: `{"team_name":"team-a"}`},
		{name: "wrong type", path: "/api/v1/gcp/create", body: `{"user_email":"a@b.com","team_name":"team-a","requested_duration_hours":"two"}`},
		{name: "extend without project", path: "/api/v1/gcp/extend", body: `{"extend_by_hours":2}`},
		{name: "duration above maximum", path: "/api/v1/gcp/create", body: `{"user_email":"a@b.com","team_name":"team-a","requested_duration_hours":3000000}`},
		{name: "extension above maximum", path: "/api/v1/gcp/extend", body: `{"project_id":"alice-1700000000","extend_by_hours":721}`},
	}

	h := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body api.Error
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.EqualValues(t, http.StatusBadRequest, body.Code)
			assert.Contains(t, body.Message, "validation error")
		})
	}
}

func TestDisabledProviderIsNotRouted(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/azure/create", nil)
	w := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServesOpenAPIDocument(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/gcp/create")
	assert.NotContains(t, paths, "/health")
}

func TestHealthBeforeStoreIsReady(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteTimeoutCoversProviderCalls(t *testing.T) {
	t.Parallel()

	swagger, err := api.GetSwagger()
	require.NoError(t, err)

	config := cfg.Config{
		ProviderCallTimeout:      30 * time.Second,
		ProviderOperationTimeout: 5 * time.Minute,
		RedisURL:                 "localhost:6379",
		QuotaLockTTL:             6 * time.Minute,
	}

	s := NewGinServer(t.Context(), config, telemetry.NewNoopClient(), zaptest.NewLogger(t), &handlers.APIStore{}, swagger)
	assert.Greater(t, s.WriteTimeout, config.RequestTimeout())
}
