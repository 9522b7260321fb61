package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ratewalk/api/handler"
	"github.com/use-agent/ratewalk/api/middleware"
	"github.com/use-agent/ratewalk/cache"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/walker"
)

// Deps are the long-lived components the routes share.
type Deps struct {
	Browser handler.Browser
	Walker  *walker.Walker
	Cache   *cache.Cache
	Jobs    *handler.JobStore

	// Out additionally receives every entry captured by API walks. Optional.
	Out dataset.Sink
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds the background walks and cleanup goroutines.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(deps.Browser, deps.Jobs, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.GET("/awards", handler.Awards(deps.Browser, deps.Walker, cfg.Walker.StartURL, deps.Cache))

	protected.POST("/walks", handler.PostWalk(ctx, deps.Browser, deps.Walker, cfg.Walker.StartURL, deps.Jobs, deps.Out))
	protected.GET("/walks/:id", handler.GetWalk(deps.Jobs))

	return r
}
