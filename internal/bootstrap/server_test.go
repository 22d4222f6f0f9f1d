package bootstrap

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/subconv/internal/config"
	"github.com/creamcroissant/subconv/internal/service"
)

func testConfig(t *testing.T, profilePath string) *config.Config {
	t.Helper()
	return &config.Config{
		HTTP: config.HTTPConfig{
			Addr:            "127.0.0.1:0",
			ShutdownTimeout: 5 * time.Second,
			ConvertTimeout:  10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Fetch: config.FetchConfig{
			Timeout:   5 * time.Second,
			MaxBytes:  1 << 20,
			UserAgent: "clash",
		},
		Profile: config.ProfileConfig{Path: profilePath},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "subconv"},
	}
}

func TestServerEndToEnd(t *testing.T) {
	var ruleHits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sub":
			assert.Equal(t, "clash", r.Header.Get("User-Agent"))
			link := "ss://" + base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:pw")) + "@1.2.3.4:8388#香港 01"
			_, _ = io.WriteString(w, base64.StdEncoding.EncodeToString([]byte(link)))
		case "/rules.list":
			ruleHits.Add(1)
			_, _ = io.WriteString(w, "DOMAIN-SUFFIX,example.org\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	profilePath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
proxy_groups:
  - name: 节点选择
    proxies: ["@国家节点"]
    hosts: [`+upstream.URL+`/rules.list]
`), 0o600))

	srv, err := NewServer(testConfig(t, profilePath), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	target := base + "/subconv?url=" + url.QueryEscape(upstream.URL+"/sub")
	for i := 0; i < 2; i++ {
		resp, err := http.Get(target)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Contains(t, string(body), "DOMAIN-SUFFIX,example.org,节点选择")
		assert.Contains(t, string(body), "MATCH,节点选择")
	}
	assert.EqualValues(t, 1, ruleHits.Load(), "rule lists are cached across requests")

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(metrics), `subconv_conversions_total{result="ok"} 2`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerRejectsBadRefreshSpec(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Rules.RefreshSpec = "every tuesday"
	_, err := NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestNewHTTPServerWriteTimeout(t *testing.T) {
	cfg := testConfig(t, "")
	srv := NewHTTPServer(cfg, http.NotFoundHandler())
	assert.Equal(t, 20*time.Second, srv.WriteTimeout)
}

func TestDefaultConfigFetchesEveryRuleSourceAtOnce(t *testing.T) {
	const sources = 12
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	var released atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if n == sources && released.CompareAndSwap(false, true) {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = io.WriteString(w, "DOMAIN-SUFFIX"+r.URL.Path+",x\n")
	}))
	defer upstream.Close()

	var hosts []string
	for i := 0; i < sources; i++ {
		hosts = append(hosts, upstream.URL+"/r"+string(rune('a'+i)))
	}
	profilePath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
proxy_groups:
  - name: 节点选择
    proxies: ["@国家节点"]
    hosts: [`+strings.Join(hosts, ", ")+`]
`), 0o600))

	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Profile.Path = profilePath

	comps := NewComponents(cfg, nil, nil)
	link := "ss://" + base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:pw")) + "@1.2.3.4:8388#香港 01"
	res, err := comps.Converter.Convert(context.Background(), service.Request{Blob: []byte(link)})
	require.NoError(t, err)

	assert.EqualValues(t, sources, peak.Load(), "every rule source is in flight together")
	assert.Zero(t, res.Diagnostics.RuleSourcesFailed)
}
