package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/fetch"
	"github.com/creamcroissant/subconv/internal/profile"
)

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

// fakeFetcher serves canned bodies and records calls.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	delay  time.Duration
	calls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	body, ok := f.bodies[u]
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, &fetch.Error{URL: u, Status: 404}
	}
	return []byte(body), nil
}

var subscription = b64(strings.Join([]string{
	"ss://" + b64("aes-256-gcm:pw") + "@1.2.3.4:8388#香港 01",
	"vmess://" + b64(`{"ps":"日本 01","add":"v.example.com","port":"443","id":"u","net":"ws"}`),
	"unknown://whatever",
}, "\n"))

const testProfile = `
proxy_groups:
  - name: 节点选择
    type: select
    proxies: ["@国家节点"]
    hosts:
      - https://rules.example.com/a.list
      - https://rules.example.com/missing.list
  - name: Streaming
    type: select
    proxies: [节点选择]
    hosts:
      - https://rules.example.com/a.list
`

func newService(t *testing.T, subs, rulesF fetch.Fetcher, prof string) (ConversionService, *Metrics) {
	t.Helper()
	var src profile.Source = profile.Static{}
	if prof != "" {
		p, err := profile.Parse([]byte(prof))
		require.NoError(t, err)
		src = profile.Static{Profile: p}
	}
	m := NewMetrics(prometheus.NewRegistry(), "test")
	return NewConversionService(Options{Subscriptions: subs, Rules: rulesF, Profiles: src, Metrics: m}), m
}

func TestConvertFromURLs(t *testing.T) {
	subs := &fakeFetcher{bodies: map[string]string{"https://sub.example.com/a": subscription}}
	rulesF := &fakeFetcher{bodies: map[string]string{
		"https://rules.example.com/a.list": "DOMAIN-SUFFIX,netflix.com\nIP-CIDR,1.0.0.0/8,no-resolve\n",
	}}
	svc, m := newService(t, subs, rulesF, testProfile)

	res, err := svc.Convert(context.Background(), Request{SubscriptionURLs: []string{"https://sub.example.com/a", " https://sub.example.com/a "}})
	require.NoError(t, err)

	d := res.Diagnostics
	assert.NotEmpty(t, d.ConversionID)
	assert.Equal(t, 3, d.Links)
	assert.Equal(t, 2, d.Decoded)
	require.Len(t, d.Dropped, 1)
	assert.Equal(t, 2, d.Dropped[0].Index)
	assert.Equal(t, 2, d.RuleSources, "duplicate rule URLs are fetched once")
	assert.Equal(t, 1, d.RuleSourcesFailed)
	assert.Len(t, subs.calls, 1)

	doc := res.Document
	assert.Len(t, doc.Proxies, 2)
	assert.Equal(t, []string{"节点选择", "Streaming", "🇭🇰香港", "🇯🇵日本"},
		lo.Map(doc.ProxyGroups, func(g clash.ProxyGroup, _ int) string { return g.Name }))
	assert.Contains(t, doc.Rules, "DOMAIN-SUFFIX,netflix.com,节点选择")
	assert.Contains(t, doc.Rules, "IP-CIDR,1.0.0.0/8,节点选择,no-resolve")
	assert.Contains(t, doc.Rules, "DOMAIN-SUFFIX,netflix.com,Streaming")
	assert.Less(t, lo.IndexOf(doc.Rules, "IP-CIDR,1.0.0.0/8,节点选择,no-resolve"),
		lo.IndexOf(doc.Rules, "DOMAIN-SUFFIX,netflix.com,Streaming"))
	assert.Equal(t, "MATCH,节点选择", doc.Rules[len(doc.Rules)-1])

	assert.InDelta(t, 1, testutil.ToFloat64(m.conversions.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.linksDropped), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ruleFailures), 0)
}

func TestConvertFromBlob(t *testing.T) {
	svc, _ := newService(t, nil, nil, "")
	res, err := svc.Convert(context.Background(), Request{Blob: []byte(subscription)})
	require.NoError(t, err)
	assert.Len(t, res.Document.Proxies, 2)
	assert.Nil(t, res.Document.RuleProviders)
	assert.Equal(t, "MATCH,🇭🇰香港", res.Document.Rules[len(res.Document.Rules)-1])
}

func TestConvertErrors(t *testing.T) {
	subs := &fakeFetcher{bodies: map[string]string{"https://sub.example.com/html": "<html>login</html>"}}
	svc, m := newService(t, subs, nil, "")
	ctx := context.Background()

	_, err := svc.Convert(ctx, Request{})
	assert.ErrorIs(t, err, ErrEmptyRequest)

	_, err = svc.Convert(ctx, Request{SubscriptionURLs: []string{"https://sub.example.com/gone"}})
	assert.ErrorIs(t, err, ErrSubscriptionFetch)
	var fe *fetch.Error
	assert.ErrorAs(t, err, &fe)

	_, err = svc.Convert(ctx, Request{SubscriptionURLs: []string{"https://sub.example.com/html"}})
	assert.ErrorIs(t, err, ErrSubscriptionDecode)

	_, err = svc.Convert(ctx, Request{Blob: []byte("%%% not base64 %%%")})
	assert.ErrorIs(t, err, ErrSubscriptionDecode)

	assert.InDelta(t, 3, testutil.ToFloat64(m.conversions.WithLabelValues("bad_request")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.conversions.WithLabelValues("subscription_fetch")), 0)
}

type brokenProfile struct{}

func (brokenProfile) Load(context.Context) (*profile.Profile, error) {
	return nil, &profile.Error{Path: "rules.yaml", Cause: errors.New("bad indent")}
}

func TestConvertProfileFailure(t *testing.T) {
	svc := NewConversionService(Options{Profiles: brokenProfile{}})
	_, err := svc.Convert(context.Background(), Request{Blob: []byte(subscription)})
	assert.ErrorIs(t, err, profile.ErrInvalidProfile)
}

func TestConvertTimeout(t *testing.T) {
	subs := &fakeFetcher{bodies: map[string]string{"https://sub.example.com/a": subscription}, delay: time.Second}
	svc := NewConversionService(Options{Subscriptions: subs, Timeout: 30 * time.Millisecond})

	start := time.Now()
	_, err := svc.Convert(context.Background(), Request{SubscriptionURLs: []string{"https://sub.example.com/a"}})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConvertToleratesAllRuleFailures(t *testing.T) {
	svc, _ := newService(t, nil, &fakeFetcher{}, testProfile)
	res, err := svc.Convert(context.Background(), Request{Blob: []byte(subscription)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diagnostics.RuleSourcesFailed)
	assert.Contains(t, res.Document.Rules, "GEOIP,CN,DIRECT")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "香港…", truncate("香港测试", 2))
}
