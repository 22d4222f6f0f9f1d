// 文件路径: internal/api/middleware/security.go
// 模块说明: 安全中间件，按客户端 IP 限流，限制请求体大小
package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RateLimiter 固定窗口限流器，窗口到期后由 go-cache 清理
type RateLimiter struct {
	mu      sync.Mutex
	windows *gocache.Cache
	limit   int
	window  time.Duration
	now     func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter 创建新的限流器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: gocache.New(window, 2*window),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed, the remaining quota and the window end.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if v, ok := rl.windows.Get(key); ok {
		w := v.(*rateWindow)
		if now.Before(w.resetAt) {
			if w.count >= rl.limit {
				return false, 0, w.resetAt
			}
			w.count++
			return true, rl.limit - w.count, w.resetAt
		}
	}
	w := &rateWindow{count: 1, resetAt: now.Add(rl.window)}
	rl.windows.Set(key, w, rl.window)
	return true, rl.limit - 1, w.resetAt
}

// RateLimitConfig Rate Limit 配置
type RateLimitConfig struct {
	Limit     int           // 每个窗口的请求数
	Window    time.Duration // 时间窗口
	KeyFunc   func(*http.Request) string
	SkipPaths []string
	// OnLimit renders the 429 response; nil writes plain text.
	OnLimit http.HandlerFunc
}

// DefaultRateLimitConfig 默认按 IP 每分钟 60 次
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:     60,
		Window:    time.Minute,
		KeyFunc:   getClientIP,
		SkipPaths: []string{"/healthz", "/metrics"},
	}
}

// RateLimit Rate Limiting 中间件
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = getClientIP
	}
	if config.OnLimit == nil {
		config.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		}
	}

	limiter := NewRateLimiter(config.Limit, config.Window)
	skipPaths := toSet(config.SkipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, resetAt := limiter.Allow(config.KeyFunc(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retry := int(time.Until(resetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				config.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimitConfig 请求体大小限制配置
type BodyLimitConfig struct {
	MaxBytes  int64
	SkipPaths []string
}

// DefaultBodyLimitConfig 默认配置（10MB）
func DefaultBodyLimitConfig() BodyLimitConfig {
	return BodyLimitConfig{MaxBytes: 10 << 20}
}

// BodyLimit wraps the body in http.MaxBytesReader; handlers see
// *http.MaxBytesError once the cap is crossed.
func BodyLimit(config BodyLimitConfig) func(http.Handler) http.Handler {
	if config.MaxBytes <= 0 {
		config.MaxBytes = 10 << 20
	}
	skipPaths := toSet(config.SkipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !skipPaths[r.URL.Path] && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, config.MaxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, p := range items {
		set[p] = true
	}
	return set
}

// getClientIP 获取客户端真实 IP，仅信任来自内网代理的转发头
func getClientIP(r *http.Request) string {
	remoteIP := parseIP(r.RemoteAddr)
	if remoteIP == "" || !isTrustedProxy(remoteIP) {
		return remoteIP
	}
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remoteIP
}

func parseIP(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(trimmed); err == nil {
		return host
	}
	return trimmed
}

func isTrustedProxy(remoteIP string) bool {
	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}
