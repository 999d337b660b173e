package router

import (
	"net/http"

	"classping/internal/common"
	"classping/internal/config"
	"classping/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes is implemented by every domain handler.
type Routes interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// New creates and configures the Gin router with all middleware and routes.
func New(cfg *config.Config, verifier middleware.TokenVerifier, handlers ...Routes) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	common.InitValidators()

	r := gin.New()

	// Global middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	if cfg.RateLimit.RequestsPerSecond > 0 {
		rateLimiter := middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
		)
		r.Use(rateLimiter.Middleware())
	}

	r.Use(middleware.Logger())

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	api.GET("/health", healthCheck)

	protected := api.Group("")
	protected.Use(middleware.Auth(verifier))

	for _, h := range handlers {
		h.RegisterRoutes(api, protected)
	}

	return r
}

// healthCheck handles GET /health
func healthCheck(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"service": "classping",
	})
}
