// 文件路径: internal/service/convert.go
// 模块说明: 一次订阅转换的完整流程：获取订阅 → 解码节点 → 分组 → 下载规则 → 组装配置。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/classify"
	"github.com/creamcroissant/subconv/internal/fetch"
	"github.com/creamcroissant/subconv/internal/node"
	"github.com/creamcroissant/subconv/internal/profile"
	"github.com/creamcroissant/subconv/internal/rules"
)

// ConversionService 把订阅转换为 clash 配置。
type ConversionService interface {
	Convert(ctx context.Context, req Request) (*Result, error)
}

// Request carries the node sources of one conversion. Both may be set.
type Request struct {
	SubscriptionURLs []string
	// Blob is a raw subscription body, usually base64.
	Blob []byte
}

// Result is the assembled document plus what happened on the way.
type Result struct {
	Document    *clash.Document
	Diagnostics Diagnostics
}

// Diagnostics summarizes a conversion.
type Diagnostics struct {
	ConversionID      string
	Links             int
	Decoded           int
	Dropped           []node.Dropped
	RuleSources       int
	RuleSourcesFailed int
	Duration          time.Duration
}

// Options wires the collaborators of the conversion service.
type Options struct {
	// Subscriptions fetches subscription URLs; never cached.
	Subscriptions fetch.Fetcher
	// Rules fetches rule-list URLs; usually a *fetch.Cached.
	Rules    fetch.Fetcher
	Profiles profile.Source
	// Timeout bounds a whole conversion; 0 leaves it to the caller.
	Timeout time.Duration
	// FetchLimit bounds concurrent downloads; 0 means all at once.
	FetchLimit int
	Metrics    *Metrics
	Logger     *slog.Logger
}

type conversionService struct {
	subs       fetch.Fetcher
	rules      fetch.Fetcher
	profiles   profile.Source
	timeout    time.Duration
	fetchLimit int
	metrics    *Metrics
	logger     *slog.Logger
}

// NewConversionService 组装转换服务依赖。
func NewConversionService(opts Options) ConversionService {
	s := &conversionService{
		subs:       opts.Subscriptions,
		rules:      opts.Rules,
		profiles:   opts.Profiles,
		timeout:    opts.Timeout,
		fetchLimit: opts.FetchLimit,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if s.rules == nil {
		s.rules = s.subs
	}
	if s.profiles == nil {
		s.profiles = profile.Static{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *conversionService) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	diag := Diagnostics{ConversionID: uuid.NewString()}
	logger := s.logger.With("conversion_id", diag.ConversionID)

	res, err := s.convert(ctx, req, &diag, logger)
	diag.Duration = time.Since(start)
	s.metrics.observe(resultLabel(err), len(diag.Dropped), diag.RuleSourcesFailed)
	if err != nil {
		logger.Warn("conversion failed", "error", err, "duration", diag.Duration)
		return nil, err
	}
	res.Diagnostics = diag
	logger.Info("conversion completed",
		"links", diag.Links,
		"decoded", diag.Decoded,
		"dropped", len(diag.Dropped),
		"groups", len(res.Document.ProxyGroups),
		"rules", len(res.Document.Rules),
		"rule_sources", diag.RuleSources,
		"rule_sources_failed", diag.RuleSourcesFailed,
		"duration", diag.Duration,
	)
	return res, nil
}

func (s *conversionService) convert(ctx context.Context, req Request, diag *Diagnostics, logger *slog.Logger) (*Result, error) {
	urls := cleanURLs(req.SubscriptionURLs)
	if len(urls) == 0 && len(strings.TrimSpace(string(req.Blob))) == 0 {
		return nil, ErrEmptyRequest
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	links, err := s.collectLinks(ctx, urls, req.Blob)
	if err != nil {
		return nil, err
	}
	diag.Links = len(links)
	nodes, dropped := node.DecodeAll(links)
	diag.Decoded = len(nodes)
	diag.Dropped = dropped
	for _, d := range dropped {
		logger.Warn("share link dropped", "index", d.Index, "link", truncate(d.Link, 48), "error", d.Err)
	}

	prof, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	classified := classify.Classify(names)

	groupRules, err := s.collectRules(ctx, prof, diag, logger)
	if err != nil {
		return nil, err
	}

	doc := clash.Assemble(clash.Input{
		Proxies:    nodes,
		Classified: classified,
		Profile:    prof,
		GroupRules: groupRules,
	})
	return &Result{Document: doc}, nil
}

// collectLinks resolves every subscription source to share links. Any
// subscription failure fails the conversion.
func (s *conversionService) collectLinks(ctx context.Context, urls []string, blob []byte) ([]string, error) {
	var links []string
	if len(urls) > 0 {
		if s.subs == nil {
			return nil, fmt.Errorf("%w: no fetcher configured", ErrSubscriptionFetch)
		}
		results, err := fetch.FetchAll(ctx, s.subs, urls, s.fetchLimit)
		if err != nil {
			return nil, timeoutOr(ctx, err)
		}
		for _, r := range results {
			if r.Err != nil {
				if ctx.Err() != nil {
					return nil, timeoutOr(ctx, r.Err)
				}
				return nil, fmt.Errorf("%w: %s: %w", ErrSubscriptionFetch, fetch.Redact(r.URL), r.Err)
			}
			decoded, err := node.DecodeSubscription(r.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrSubscriptionDecode, fetch.Redact(r.URL), err)
			}
			links = append(links, decoded...)
		}
	}
	if len(strings.TrimSpace(string(blob))) > 0 {
		decoded, err := node.DecodeSubscription(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSubscriptionDecode, err)
		}
		links = append(links, decoded...)
	}
	return links, nil
}

// collectRules downloads every rule-list URL once and aggregates the rules of
// each declared group. Failed downloads contribute nothing.
func (s *conversionService) collectRules(ctx context.Context, prof *profile.Profile, diag *Diagnostics, logger *slog.Logger) (map[string][]string, error) {
	urls := cleanURLs(prof.HostURLs())
	diag.RuleSources = len(urls)
	if len(urls) == 0 {
		return nil, nil
	}
	if s.rules == nil {
		diag.RuleSourcesFailed = len(urls)
		logger.Warn("rule sources skipped, no fetcher configured", "count", len(urls))
		return nil, nil
	}
	results, err := fetch.FetchAll(ctx, s.rules, urls, s.fetchLimit)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	bodies := make(map[string]string, len(results))
	for _, r := range results {
		if r.Err != nil {
			diag.RuleSourcesFailed++
			logger.Warn("rule source unavailable", "url", fetch.Redact(r.URL), "error", r.Err)
			continue
		}
		bodies[r.URL] = string(r.Body)
	}

	texts := make(map[string][]string)
	var order []string
	for _, g := range prof.ProxyGroups {
		if _, seen := texts[g.Name]; !seen {
			order = append(order, g.Name)
			texts[g.Name] = nil
		}
		for _, u := range g.Hosts {
			if body, ok := bodies[strings.TrimSpace(u)]; ok {
				texts[g.Name] = append(texts[g.Name], body)
			}
		}
	}
	out := make(map[string][]string, len(order))
	for _, name := range order {
		if agg := rules.Aggregate(name, texts[name]...); len(agg) > 0 {
			out[name] = agg
		}
	}
	return out, nil
}

func cleanURLs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, u := range in {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// timeoutOr maps a deadline hit to ErrTimeout so callers can tell it apart.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrSubscriptionFetch):
		return "subscription_fetch"
	case errors.Is(err, ErrSubscriptionDecode), errors.Is(err, ErrEmptyRequest):
		return "bad_request"
	case errors.Is(err, profile.ErrInvalidProfile):
		return "profile"
	default:
		return "error"
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
