package bootstrap

import (
	"io"
	"time"

	httpapi "github.com/engdocs/docregister-backend/internal/api/http"
	"github.com/engdocs/docregister-backend/internal/api/http/middleware"
	dochttp "github.com/engdocs/docregister-backend/internal/documents/http"
	"github.com/engdocs/docregister-backend/internal/documents/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	StoreBackend   string
	Backends       *Backends
	Service        *service.DocumentService
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	LogWriter      io.Writer
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	if dep.LogWriter != nil {
		r.Use(gin.LoggerWithWriter(dep.LogWriter, "/healthz"))
	} else {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.StoreBackend, dep.Backends.Pool, dep.Backends.Redis)
	health.RegisterRoutes(r)
	r.GET("/metrics", httpapi.MetricsHandler)

	api := r.Group("/api/v1")
	limiter := middleware.NewRateLimiter(dep.RateLimitRPS, dep.RateLimitBurst)
	dochttp.New(dep.Service).Register(api, limiter.Middleware())

	return r
}
