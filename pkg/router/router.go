package router

import (
	"net/http"

	"command-bot/backend/internal/api"
	"command-bot/backend/internal/ws"
	"command-bot/backend/pkg/config"
	"command-bot/backend/pkg/di"
	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/middleware"
	"command-bot/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container
	bridgeAuth := middleware.BridgeAuth(c.JWTService)

	authHandler := api.NewAuthHandler(r.Config.Bridge.ClientID, r.Config.Bridge.SecretHash, c.JWTService)
	eventHandler := api.NewEventHandler(c.Dispatcher, c.Store)

	// Operational endpoints
	r.Engine.GET("/health", gin.WrapF(c.Health.HTTPHandler()))
	r.Engine.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	r.Engine.GET("/api/docs/openapi.yaml", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "application/yaml", api.OpenAPIDocument)
	})

	// API version 1 routes, limited per client IP
	httpLimiter := middleware.NewRateLimiter(r.Logger)
	v1 := r.Engine.Group("/api/v1")
	v1.Use(httpLimiter.Middleware())

	schema := r.schemaValidation()

	// Public routes (no auth required)
	public := v1.Group("")
	public.Use(schema...)
	authHandler.RegisterRoutes(public)

	// Protected routes (require a bridge token)
	protected := v1.Group("")
	protected.Use(bridgeAuth)
	protected.Use(schema...)
	eventHandler.RegisterRoutes(protected)
	if c.Audit != nil {
		api.NewAlertsHandler(c.Audit).RegisterRoutes(protected)
	}

	// Bridge WebSocket
	r.Engine.GET("/ws/bridge", bridgeAuth, func(ctx *gin.Context) {
		ws.ServeWs(c.Hub, ctx)
	})
}

// schemaValidation returns the request validation middleware, or nothing when
// validation is disabled or the document cannot be loaded
func (r *Router) schemaValidation() []gin.HandlerFunc {
	if !r.Config.OpenAPI.Enabled {
		return nil
	}
	v, err := validator.NewOpenAPIValidator(api.OpenAPIDocument)
	if err != nil {
		r.Logger.LogError(err, "Failed to initialize OpenAPI validator, skipping validation")
		return nil
	}
	r.Logger.Info("OpenAPI validation enabled", "docs", "/api/docs/openapi.yaml")
	return []gin.HandlerFunc{v.Middleware()}
}

// corsMiddleware allows browser tooling and WebSocket upgrades from any origin
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Authorization, Origin, Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection, Retry-After")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
