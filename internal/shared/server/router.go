package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/identity"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/server/respond"
)

// RouterDeps carries the dependencies the router needs.
type RouterDeps struct {
	Config          config.Config
	Verifier        identity.Verifier
	AnalysisHandler *analyses.Handler
	Limiter         *middleware.SlidingWindowLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewSlidingWindowLimiter(
			deps.Config.RateLimitRequests,
			time.Duration(deps.Config.RateLimitWindowSeconds)*time.Second,
			nil,
		)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Config.Env == "dev" {
		api.GET("/metrics", metrics.Handler())
	}

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.Verifier), middleware.RateLimit(limiter))
	deps.AnalysisHandler.RegisterRoutes(authed)

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
