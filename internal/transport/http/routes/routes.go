package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/handlers"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/middleware"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	RateLimiter    *middleware.RateLimiter
	Users          handlers.UserService
	PasswordPolicy port.PasswordPolicy
	PasswordHasher port.PasswordHasher
	HTTPMetrics    *middleware.HTTPMetrics
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var allowedOrigins []string
	if deps.Config != nil {
		if domain.Environment(deps.Config.App.Env).IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		allowedOrigins = deps.Config.App.CORSAllowedOrigins
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Handler())
	}
	r.Use(middleware.CORS(allowedOrigins))

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.Users != nil {
		api := r.Group("/api/v1")
		usersGroup := api.Group("/users")

		write := buildWriteMiddlewares(deps)
		deleteAll := append(append([]gin.HandlerFunc{}, write...), buildDeleteAllMiddlewares(deps)...)

		userHandler := handlers.NewUserHandler(deps.Users, deps.PasswordPolicy, deps.PasswordHasher)
		userHandler.RegisterRoutes(usersGroup, write, deleteAll)
	}

	return r
}

func buildWriteMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.Config == nil {
		return nil
	}
	return rateLimitFor(deps, "users_write_ip", deps.Config.RateLimit.WriteMaxAttempts)
}

func buildDeleteAllMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.Config == nil {
		return nil
	}
	return rateLimitFor(deps, "users_delete_all_ip", deps.Config.RateLimit.DeleteAllMaxAttempts)
}

func rateLimitFor(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
