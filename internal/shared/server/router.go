package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-checker/internal/history"
	"ats-checker/internal/services/health"
	"ats-checker/internal/session"
	"ats-checker/internal/shared/config"
	"ats-checker/internal/shared/metrics"
	"ats-checker/internal/shared/server/middleware"
	"ats-checker/internal/shared/server/respond"
)

// RouterDeps contains handlers and services needed to build the router.
type RouterDeps struct {
	Config         config.Config
	SessionHandler *session.Handler
	HistoryHandler *history.Handler
	Health         *health.Service
	RateLimiter    *middleware.RateLimiter
	RateLimits     map[string]middleware.RateLimitRule
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = middleware.DefaultRateLimitRules()
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = &health.Service{}
	}
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	limited := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		Rules:    rules,
		GroupFor: middleware.SessionRouteGroup,
		Limiter:  deps.RateLimiter,
	}))
	if deps.SessionHandler != nil {
		session.RegisterRoutes(limited, deps.SessionHandler)
	}
	if deps.HistoryHandler != nil {
		history.RegisterRoutes(limited, deps.HistoryHandler)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
