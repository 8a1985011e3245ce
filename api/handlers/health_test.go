package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type unreachableDriver struct {
	*memdriver.Driver
}

func (unreachableDriver) Ping(context.Context) error {
	return errors.New("dial tcp: connection refused")
}

func checkHealth(t *testing.T, handler *HealthHandler) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handler.Check)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthHandler_Check(t *testing.T) {
	zl := zaptest.NewLogger(t)

	tests := []struct {
		name           string
		client         *backend.Client
		expectedStatus int
		expectedState  string
		degraded       bool
	}{
		{
			name:           "healthy backend",
			client:         backend.NewClient(memdriver.New(nil), zl),
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "unconfigured backend is degraded",
			client:         backend.NewClient(nil, zl),
			expectedStatus: http.StatusOK,
			expectedState:  "degraded",
			degraded:       true,
		},
		{
			name:           "unreachable backend",
			client:         backend.NewClient(unreachableDriver{memdriver.New(nil)}, zl),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, response := checkHealth(t, NewHealthHandler(tt.client, nil, nil, logger.Wrap(zl)))

			assert.Equal(t, tt.expectedStatus, code)
			assert.Equal(t, tt.expectedState, response["status"])
			assert.Equal(t, "furniture-miniapp", response["service"])
			assert.NotEmpty(t, response["timestamp"])

			info, ok := response["backend"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.degraded, info["degraded"])
			assert.NotContains(t, response, "scheduler")
		})
	}
}

func TestHealthHandler_ReportsSessions(t *testing.T) {
	f := newScreenFixture(t, nil)
	f.do(t, http.MethodGet, "/home", "")

	zl := zaptest.NewLogger(t)
	code, response := checkHealth(t, NewHealthHandler(backend.NewClient(memdriver.New(nil), zl), f.registry, nil, logger.Wrap(zl)))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), response["sessions"])
}
