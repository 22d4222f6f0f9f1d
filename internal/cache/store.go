// 文件路径: internal/cache/store.go
// 模块说明: 规则文件等远程内容的进程内缓存，基于 go-cache，支持命名空间。
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Forever keeps an entry for the process lifetime.
const Forever = gocache.NoExpiration

// Store 是按键存取字节内容的缓存接口。返回值均为副本，调用方可随意修改。
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Get(ctx context.Context, key string) ([]byte, bool)
	Delete(ctx context.Context, key string)
	TTL(ctx context.Context, key string) (time.Duration, bool)
	// Keys lists the unprefixed keys of this namespace.
	Keys(ctx context.Context) []string
	Namespace(prefix string) Store
}

// Options 配置内存缓存行为。DefaultTTL 为 0 时条目永不过期。
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Prefix          string
}

// NewStore 创建基于 go-cache 的缓存实现。
func NewStore(opts Options) Store {
	defaultTTL := opts.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = Forever
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &goCacheStore{
		backend:    gocache.New(defaultTTL, cleanup),
		defaultTTL: defaultTTL,
		prefix:     normalizePrefix(opts.Prefix),
	}
}

type goCacheStore struct {
	backend    *gocache.Cache
	defaultTTL time.Duration
	prefix     string
}

func (s *goCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	buf := make([]byte, len(value))
	copy(buf, value)
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	s.backend.Set(s.prefixed(key), buf, ttl)
}

func (s *goCacheStore) Get(_ context.Context, key string) ([]byte, bool) {
	raw, ok := s.backend.Get(s.prefixed(key))
	if !ok {
		return nil, false
	}
	v, ok := raw.([]byte)
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(v))
	copy(buf, v)
	return buf, true
}

func (s *goCacheStore) Delete(_ context.Context, key string) {
	s.backend.Delete(s.prefixed(key))
}

// TTL reports the remaining lifetime; entries that never expire report
// Forever.
func (s *goCacheStore) TTL(_ context.Context, key string) (time.Duration, bool) {
	_, exp, ok := s.backend.GetWithExpiration(s.prefixed(key))
	if !ok {
		return 0, false
	}
	if exp.IsZero() {
		return Forever, true
	}
	ttl := time.Until(exp)
	if ttl < 0 {
		return 0, false
	}
	return ttl, true
}

func (s *goCacheStore) Keys(_ context.Context) []string {
	var keys []string
	lead := ""
	if s.prefix != "" {
		lead = s.prefix + ":"
	}
	for k := range s.backend.Items() {
		if lead != "" && !strings.HasPrefix(k, lead) {
			continue
		}
		keys = append(keys, strings.TrimPrefix(k, lead))
	}
	return keys
}

func (s *goCacheStore) Namespace(prefix string) Store {
	return &goCacheStore{
		backend:    s.backend,
		defaultTTL: s.defaultTTL,
		prefix:     joinPrefixes(s.prefix, prefix),
	}
}

// prefixed keeps keys verbatim apart from the namespace; URLs contain ':'.
func (s *goCacheStore) prefixed(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func normalizePrefix(prefix string) string {
	return strings.Trim(prefix, ": ")
}

func joinPrefixes(parts ...string) string {
	var normalized []string
	for _, part := range parts {
		if trimmed := normalizePrefix(part); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return strings.Join(normalized, ":")
}
