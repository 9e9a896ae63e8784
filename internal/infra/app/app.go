package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/database"
	kafkainfra "github.com/yusay1498/vibe-coding-practice-api/internal/infra/kafka"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/logger"
	redisinfra "github.com/yusay1498/vibe-coding-practice-api/internal/infra/redis"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/security"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/telemetry"
	postgresrepo "github.com/yusay1498/vibe-coding-practice-api/internal/repository/postgres"
	redisrepo "github.com/yusay1498/vibe-coding-practice-api/internal/repository/redis"
	transportgrpc "github.com/yusay1498/vibe-coding-practice-api/internal/transport/grpc"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/grpc/interceptors"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/middleware"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/routes"
	"github.com/yusay1498/vibe-coding-practice-api/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	tracer     *telemetry.TracerProvider
	grpcServer *transportgrpc.Server
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &Application{cfg: cfg, logger: log, tracer: tracer}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		a.closeResources(context.Background())
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pool = pool

	if err := a.wire(ctx, registry); err != nil {
		a.closeResources(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context, registry *prometheus.Registry) error {
	cfg, log := a.cfg, a.logger
	clock := clockwork.NewRealClock()

	repos := postgresrepo.NewRepositories(a.pool)
	txScope := database.NewTxScope(a.pool, log)

	eventPublisher := a.newEventPublisher()

	mutationMetrics, err := telemetry.NewMutationMetrics(registry)
	if err != nil {
		return fmt.Errorf("init mutation metrics: %w", err)
	}

	userService, err := usecase.NewUserService(repos.Users, txScope, clock, usecase.UserServiceConfig{
		Environment:     cfg.App.Env,
		DeletionCeiling: cfg.Users.DeletionCeiling,
	})
	if err != nil {
		return fmt.Errorf("init user service: %w", err)
	}
	userService.
		WithLogger(log).
		WithEventPublisher(eventPublisher).
		WithMetrics(mutationMetrics)

	hasher, err := security.NewArgon2Hasher(security.Argon2ConfigFromSettings(cfg.Argon2))
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}
	passwordPolicy := security.NewPasswordPolicy(cfg.Password)

	var rateLimitStore port.RateLimitStore
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, rate limiting is degraded",
				zap.String("policy", cfg.RateLimit.DegradationMode),
				zap.Error(err),
			)
		} else {
			a.redis = redisClient
			window := cfg.RateLimit.WindowDuration
			if window <= 0 {
				window = time.Minute
			}
			rateLimitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
				KeyPrefix: cfg.Redis.KeyPrefix,
				TTL:       window * 2,
			})
		}
	}

	degradation := domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.RateLimit.DegradationMode))
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log).
		WithClock(clock).
		WithDegradationPolicy(degradation)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	grpcMetrics, err := interceptors.NewGRPCMetrics(interceptors.GRPCMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init grpc metrics: %w", err)
	}

	grpcDeps := transportgrpc.ServerDependencies{Logger: log, Metrics: grpcMetrics}
	if a.tracer.Enabled() {
		grpcDeps.Tracing = &interceptors.TracingOptions{}
	}
	a.grpcServer = transportgrpc.NewServer(grpcDeps)

	routeDeps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		RateLimiter:    rateLimiter,
		Users:          userService,
		PasswordPolicy: passwordPolicy,
		PasswordHasher: hasher,
		HTTPMetrics:    httpMetrics,
		Gatherer:       registry,
		Database:       a.pool,
	}
	if a.redis != nil {
		routeDeps.Cache = a.redis
	}
	a.engine = routes.Register(routeDeps)

	return nil
}

func (a *Application) newEventPublisher() port.EventPublisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

// Run serves HTTP and gRPC until ctx is cancelled or either listener fails, then drains both.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.App.Host, strconv.Itoa(a.cfg.App.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := net.JoinHostPort(a.cfg.GRPC.Host, strconv.Itoa(a.cfg.GRPC.Port))
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		a.closeResources(context.Background())
		return fmt.Errorf("listen grpc: %w", err)
	}

	a.logger.Info("starting user API",
		zap.String("env", a.cfg.App.Env),
		zap.String("http_address", srv.Addr),
		zap.String("grpc_address", grpcAddr),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("run grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.grpcServer.Shutdown(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.closeResources(closeCtx)

	return err
}

// closeResources releases everything New acquired. The producer is closed after the
// servers stop so events published by in-flight requests are flushed.
func (a *Application) closeResources(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown tracer provider", zap.Error(err))
		}
	}
}
