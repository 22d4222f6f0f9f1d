// 文件路径: internal/api/router.go
// 模块说明: HTTP 路由装配：中间件链、转换接口、健康检查与指标。
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/subconv/internal/api/handler"
	"github.com/creamcroissant/subconv/internal/api/middleware"
	"github.com/creamcroissant/subconv/internal/service"
	"github.com/creamcroissant/subconv/internal/support/i18n"
)

// Services 路由依赖的服务集合。
type Services struct {
	Converter service.ConversionService
	I18n      *i18n.Manager
}

// Options tunes the middleware chain. Zero values disable optional parts.
type Options struct {
	Logger       *slog.Logger
	MaxBodyBytes int64
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	Metrics   MetricsOptions
}

// MetricsOptions controls the /metrics endpoint and HTTP collectors.
type MetricsOptions struct {
	Enabled   bool
	Namespace string
	// Token, when set, is required as a Bearer token on /metrics.
	Token string
	// Registry receives the HTTP collectors and backs /metrics.
	// nil uses the Prometheus default registry.
	Registry *prometheus.Registry
}

// NewRouter 构建 subconv 的 HTTP 处理器。
func NewRouter(services Services, opts Options) http.Handler {
	if services.Converter == nil {
		panic("router requires ConversionService")
	}
	if services.I18n == nil {
		panic("router requires I18n Manager")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	convert := handler.NewConvertHandler(services.Converter, services.I18n, logger)

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 5 * time.Second,
			SkipPaths:     []string{"/healthz"},
		}),
	)

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Metrics.Enabled {
		var reg prometheus.Registerer = prometheus.DefaultRegisterer
		if opts.Metrics.Registry != nil {
			reg, gatherer = opts.Metrics.Registry, opts.Metrics.Registry
		}
		mCfg := middleware.DefaultMetricsConfig()
		if opts.Metrics.Namespace != "" {
			mCfg.Namespace = opts.Metrics.Namespace
		}
		r.Use(middleware.NewMetrics(reg, mCfg).Middleware())
	}

	r.Use(
		chiMiddleware.Recoverer,
		middleware.I18n(services.I18n),
		middleware.BodyLimit(middleware.BodyLimitConfig{MaxBytes: opts.MaxBodyBytes}),
	)
	if opts.RateLimit > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.Limit = opts.RateLimit
		rl.OnLimit = convert.RateLimited
		r.Use(middleware.RateLimit(rl))
	}

	r.NotFound(convert.NotFound)
	r.Get("/", convert.Hello)
	r.Get("/healthz", handler.Healthz)
	r.Get("/subconv", convert.Get)
	r.Post("/subconv", convert.Post)

	if opts.Metrics.Enabled {
		metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		if opts.Metrics.Token != "" {
			r.With(middleware.MetricsGuard(opts.Metrics.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	return r
}
