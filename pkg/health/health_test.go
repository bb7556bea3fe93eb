package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, checker *Checker, path string) (int, Response) {
	t.Helper()

	e := echo.New()
	checker.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var response Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return rec.Code, response
}

func TestHealthHandler(t *testing.T) {
	checker := NewChecker("1.0.0")
	checker.AddCheck("database", func(context.Context) error { return nil })

	code, response := serve(t, checker, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, StatusHealthy, response.Checks["database"].Status)

	checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	code, response = serve(t, checker, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, "connection refused", response.Checks["redis"].Message)
}

func TestReadinessHandler(t *testing.T) {
	checker := NewChecker("1.0.0")

	code, response := serve(t, checker, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, response.Checks, "startup")

	checker.SetReady(true)
	code, _ = serve(t, checker, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
}

func TestLivenessHandler(t *testing.T) {
	code, response := serve(t, NewChecker("1.0.0"), "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.0.0", response.Version)
}
