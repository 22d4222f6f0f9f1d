// 文件路径: internal/bootstrap/server.go
// 模块说明: HTTP 服务装配与优雅停机。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/creamcroissant/subconv/internal/api"
	"github.com/creamcroissant/subconv/internal/config"
	"github.com/creamcroissant/subconv/internal/job"
	"github.com/creamcroissant/subconv/internal/support/i18n"
)

// NewHTTPServer constructs a baseline http.Server. The write timeout leaves
// room for a full conversion.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	write := 30 * time.Second
	if cfg.HTTP.ConvertTimeout > 0 {
		write = cfg.HTTP.ConvertTimeout + 10*time.Second
	}
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}
}

// Server is the assembled subconv HTTP service.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	http       *http.Server
	scheduler  *job.Scheduler
	warmup     job.Runnable
	Components *Components
}

// NewServer wires components, router and the optional rule refresh job.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required / 配置不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	comps := NewComponents(cfg, logger, registerer)

	i18nManager, err := i18n.NewManager(i18n.WithLogger(logger), i18n.WithDefaultLang("en-US"))
	if err != nil {
		return nil, err
	}

	handler := api.NewRouter(api.Services{
		Converter: comps.Converter,
		I18n:      i18nManager,
	}, api.Options{
		Logger:       logger,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		RateLimit:    cfg.HTTP.RateLimit,
		Metrics: api.MetricsOptions{
			Enabled:   cfg.Metrics.Enabled,
			Namespace: cfg.Metrics.Namespace,
			Token:     cfg.Metrics.Token,
			Registry:  reg,
		},
	})

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		http:       NewHTTPServer(cfg, handler),
		scheduler:  job.NewScheduler(logger, cfg.Rules.JobTimeout),
		Components: comps,
	}
	if spec := cfg.Rules.RefreshSpec; spec != "" {
		refresh := job.NewRuleRefreshJob(comps.Profiles, comps.Rules, cfg.Fetch.Concurrency, logger)
		if _, err := s.scheduler.Register(spec, refresh); err != nil {
			return nil, fmt.Errorf("register rule refresh job: %w", err)
		}
		s.warmup = refresh
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx ends, then drains in-flight requests and jobs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.warmup != nil {
		go func() {
			_ = job.RunOnce(ctx, s.logger, s.cfg.Rules.JobTimeout, s.warmup)
		}()
	}
	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		s.logger.Error("http server failed", "error", serveErr)
	}

	<-s.scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down http server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "error", err)
		return errors.Join(serveErr, err)
	}
	s.logger.Info("server exited cleanly")
	return serveErr
}
