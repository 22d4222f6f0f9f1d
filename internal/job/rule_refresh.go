// 文件路径: internal/job/rule_refresh.go
// 模块说明: 定时重新下载用户配置中引用的规则文件，刷新进程内缓存。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/creamcroissant/subconv/internal/fetch"
	"github.com/creamcroissant/subconv/internal/profile"
)

// Refresher replaces the cached copy of a URL. *fetch.Cached satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, rawURL string) error
}

// RuleRefreshJob re-fetches every hosts URL of the current profile.
// A failed refresh keeps the previously cached copy.
type RuleRefreshJob struct {
	Profiles profile.Source
	Cache    Refresher
	// Limit bounds parallel downloads; 0 means unbounded.
	Limit  int
	Logger *slog.Logger
}

// NewRuleRefreshJob 组装规则刷新任务。
func NewRuleRefreshJob(profiles profile.Source, cache Refresher, limit int, logger *slog.Logger) *RuleRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleRefreshJob{Profiles: profiles, Cache: cache, Limit: limit, Logger: logger}
}

// Name 返回任务标识。
func (j *RuleRefreshJob) Name() string { return "rules.refresh" }

// Run 刷新全部规则文件。部分失败时返回汇总错误。
func (j *RuleRefreshJob) Run(ctx context.Context) error {
	if j == nil || j.Profiles == nil || j.Cache == nil {
		return errors.New("rule refresh job dependencies not configured / 规则刷新任务依赖未配置")
	}
	prof, err := j.Profiles.Load(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	urls := lo.Uniq(lo.Compact(lo.Map(prof.HostURLs(), func(u string, _ int) string {
		return strings.TrimSpace(u)
	})))
	if len(urls) == 0 {
		return nil
	}

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	if j.Limit > 0 {
		g.SetLimit(j.Limit)
	}
	for _, u := range urls {
		g.Go(func() error {
			if err := j.Cache.Refresh(gctx, u); err != nil {
				failed.Add(1)
				j.Logger.Warn("rule source refresh failed", "url", fetch.Redact(u), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := int(failed.Load()); n > 0 {
		return fmt.Errorf("rule refresh: %d of %d sources failed / %d 个规则源刷新失败", n, len(urls), n)
	}
	j.Logger.Info("rule sources refreshed", "count", len(urls))
	return nil
}
