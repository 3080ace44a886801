package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	get := func(h *HealthHandler) (*httptest.ResponseRecorder, HealthResponse) {
		r := gin.New()
		h.RegisterRoutes(r)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("memory store has no dependencies", func(t *testing.T) {
		w, resp := get(NewHealthHandler("docregister", "1.0.0", "memory", nil, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Empty(t, resp.DB)
		assert.Empty(t, resp.Redis)
	})

	t.Run("redis up and down", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		w, resp := get(NewHealthHandler("docregister", "1.0.0", "redis", nil, rdb))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "up", resp.Redis)

		mr.Close()
		w, resp = get(NewHealthHandler("docregister", "1.0.0", "redis", nil, rdb))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "down", resp.Redis)
		assert.Equal(t, "degraded", resp.Status)
	})
}
