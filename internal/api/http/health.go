package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
	DB        string    `json:"db,omitempty"`
	Redis     string    `json:"redis,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	store       string
	db          *pgxpool.Pool
	redis       *redis.Client
}

// NewHealthHandler reports on the configured store backend. db and rdb may be
// nil when the backend does not use them.
func NewHealthHandler(serviceName, version, store string, db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
		db:          db,
		redis:       rdb,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     h.store,
	}
	code := http.StatusOK

	if h.db != nil {
		resp.DB = "up"
		if err := h.db.Ping(pingCtx); err != nil {
			resp.DB = "down"
		}
	}
	if h.redis != nil {
		resp.Redis = "up"
		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			resp.Redis = "down"
		}
	}
	if resp.DB == "down" || resp.Redis == "down" {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
