package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis points at a closed port so pings fail fast
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHealthUnhealthyRedis(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), zap.NewNop())
	hs.AddCheck("scripts", func(context.Context) error { return nil })
	hs.AddCheck("catalog", func(context.Context) error { return errors.New("not loaded") })

	rec := httptest.NewRecorder()
	hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["redis"], "unhealthy")
	assert.Equal(t, "healthy", resp.Checks["scripts"])
	assert.Equal(t, "unhealthy: not loaded", resp.Checks["catalog"])
}

func TestReadyUnreachableRedis(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), zap.NewNop())

	rec := httptest.NewRecorder()
	hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
}

func TestStopWithoutStart(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), zap.NewNop())
	assert.NoError(t, hs.Stop())
}
