package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-management-api/cmd/api/di"
	ginrouter "user-management-api/internal/adapter/gin/router"
	"user-management-api/internal/config"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(cfg *config.Config, c *di.Container, addr string, l *zap.Logger) *http.Server {
	opts := ginrouter.Options{
		Logger:         l,
		CORSOrigins:    cfg.App.CORSAllowedOrigins,
		TrustedProxies: cfg.App.TrustedProxies,
		RateLimiter:    c.RateLimiter,
		Metrics:        c.HTTPMetrics,
		EnableSwagger:  cfg.App.SwaggerEnabled,
	}
	if c.Registry != nil {
		opts.MetricsHandler = promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
	}

	router := ginrouter.SetupRouter(c.GinHandler, opts)

	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.Bool("metrics", opts.MetricsHandler != nil),
		zap.Bool("swagger", opts.EnableSwagger),
		zap.Bool("rate_limit", opts.RateLimiter != nil),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
