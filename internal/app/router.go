package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/worldboard/server/docs" // swagger docs
	"github.com/worldboard/server/internal/utils/middleware"
)

// setupRouter creates the Gin router and registers all routes.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	r.Use(middleware.Metrics(a.deps.Metrics))

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(a.deps.TokenVerifier))
	v1.Use(middleware.RateLimit(a.deps.RateLimiter, middleware.RateLimitConfig{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}, a.deps.Logger))
	v1.Use(middleware.Idempotency(a.deps.Redis, middleware.IdempotencyConfig{}))

	a.deps.IdentityHandler.RegisterRoutes(v1)
	a.deps.WorldHandler.RegisterRoutes(v1)
	a.deps.TaskHandler.RegisterRoutes(v1)

	return r
}

// health reports whether the database is reachable.
func (a *App) health(c *gin.Context) {
	sqlDB, err := a.deps.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
