package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-api/cmd/api/infrastructure"
	"user-management-api/internal/adapter/cache"
	"user-management-api/internal/adapter/db/gormdb"
	"user-management-api/internal/adapter/db/sqlxdb"
	ginhandler "user-management-api/internal/adapter/gin/handler"
	"user-management-api/internal/adapter/gin/middleware"
	grpcadapter "user-management-api/internal/adapter/grpc"
	"user-management-api/internal/adapter/repository/cached"
	"user-management-api/internal/config"
	"user-management-api/internal/usecase/user"
	"user-management-api/pkg/metrics"
	redisclient "user-management-api/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil unless REDIS_ENABLED
	UserUC      user.Usecase
	GinHandler  *ginhandler.UserHandler
	RateLimiter *middleware.RateLimiter // nil unless RATE_LIMIT_ENABLED
	Registry    *prometheus.Registry    // nil unless METRICS_ENABLED
	HTTPMetrics *metrics.HTTPMetrics
	Health      *grpcadapter.HealthReporter
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	sqlDB, err := db.DB()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	c.Health = grpcadapter.NewHealthReporter(sqlDB, l.Named("health"))

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	repo, err := newRepository(cfg, db, l)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(repo, userCache, l)
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	if cfg.RateLimit.Enabled && rdb != nil {
		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
			},
			l,
		)
	}

	if cfg.App.MetricsEnabled {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.RegisterDBStats(c.Registry, sqlDB, cfg.DB.Name); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to register db stats: %w", err)
		}
		c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
	}

	return c, nil
}

// newRepository selects the storage backend named by REPOSITORY_BACKEND.
func newRepository(cfg *config.Config, db *gorm.DB, l *zap.Logger) (user.Repository, error) {
	switch cfg.DB.Backend {
	case config.BackendSQLX:
		x, err := infrastructure.NewSQLX(db, cfg.DB.Driver)
		if err != nil {
			return nil, err
		}
		l.Info("using sqlx repository backend")
		return sqlxdb.NewUserRepoSQLX(x, l), nil
	default:
		l.Info("using gorm repository backend")
		return gormdb.NewUserRepoGorm(db, l), nil
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
