package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/engdocs/docregister-backend/config"
	"github.com/engdocs/docregister-backend/internal/documents/repository"
	"github.com/engdocs/docregister-backend/internal/documents/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:      config.AppConfig{StoreBackend: config.StoreMemory},
		Files:    config.FilesConfig{Backend: config.FilesLocal, Dir: t.TempDir()},
		Approval: config.ApprovalConfig{Markers: []string{"OK"}, OverrideMode: "recompute"},
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := OpenStore(ctx, testConfig(t))
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &repository.MemoryStore{}, b.Store)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		cfg := testConfig(t)
		cfg.App.StoreBackend = config.StoreRedis
		cfg.Redis.Addr = mr.Addr()

		b, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &repository.RedisStore{}, b.Store)
		assert.NotNil(t, b.Redis)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.App.StoreBackend = "sqlite"
		_, err := OpenStore(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(t)
	e, err := NewEngine(&cfg.Approval)
	require.NoError(t, err)
	assert.Equal(t, "recompute", string(e.Mode()))

	cfg.Approval.OverrideMode = "never"
	_, err = NewEngine(&cfg.Approval)
	assert.Error(t, err)
}

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := testConfig(t)

	b, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	fs, err := OpenFiles(ctx, &cfg.Files)
	require.NoError(t, err)
	engine, err := NewEngine(&cfg.Approval)
	require.NoError(t, err)

	r := BuildRouter(RouterDeps{
		ServiceName:    "docregister",
		Version:        "test",
		StoreBackend:   config.StoreMemory,
		Backends:       b,
		Service:        service.NewDocumentService(b.Store, fs, engine),
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   10,
		RateLimitBurst: 10,
	})

	for _, path := range []string{"/healthz", "/metrics", "/api/v1/documents", "/api/v1/projects/summary"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"), path)
	}
}
