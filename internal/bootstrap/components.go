// 文件路径: internal/bootstrap/components.go
// 模块说明: 按配置组装转换流程的各个组件，serve/convert/tui 命令共用。
package bootstrap

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/subconv/internal/cache"
	"github.com/creamcroissant/subconv/internal/config"
	"github.com/creamcroissant/subconv/internal/fetch"
	"github.com/creamcroissant/subconv/internal/profile"
	"github.com/creamcroissant/subconv/internal/service"
)

// Components bundles the collaborators of one conversion service.
type Components struct {
	Profiles profile.Source
	// Rules caches rule-list bodies for the process lifetime.
	Rules     *fetch.Cached
	Converter service.ConversionService
	Metrics   *service.Metrics
}

// NewComponents wires fetchers, the profile source and the converter.
// reg may be nil when metrics are not exported.
func NewComponents(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) *Components {
	client := fetch.NewClient(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
		Retry:     retryConfig(cfg.Fetch.Retries),
		Logger:    logger,
	})

	store := cache.NewStore(cache.Options{Prefix: "subconv"})
	rules := fetch.NewCached(client, store.Namespace("rules"), logger)
	profiles := profile.FileSource{Path: cfg.Profile.Path}

	var metrics *service.Metrics
	if reg != nil {
		metrics = service.NewMetrics(reg, cfg.Metrics.Namespace)
	}

	converter := service.NewConversionService(service.Options{
		Subscriptions: client,
		Rules:         rules,
		Profiles:      profiles,
		Timeout:       cfg.HTTP.ConvertTimeout,
		FetchLimit:    cfg.Fetch.Concurrency,
		Metrics:       metrics,
		Logger:        logger,
	})

	return &Components{
		Profiles:  profiles,
		Rules:     rules,
		Converter: converter,
		Metrics:   metrics,
	}
}

func retryConfig(retries int) fetch.RetryConfig {
	rc := fetch.DefaultRetryConfig()
	rc.MaxRetries = retries
	return rc
}
