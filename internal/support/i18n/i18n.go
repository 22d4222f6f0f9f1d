// Package i18n holds the translated user-facing messages.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Manager 管理翻译内容。加载完成后只读，可并发使用。
type Manager struct {
	defaultLang  string
	translations map[string]map[string]string
	tags         []language.Tag
	matcher      language.Matcher
	logger       *slog.Logger
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithLogger 设置 Manager 使用的日志实例。
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultLang 设置默认语言。
func WithDefaultLang(lang string) Option {
	return func(m *Manager) {
		m.defaultLang = lang
	}
}

// NewManager 创建 i18n Manager 并加载内置语言包。
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		defaultLang:  "en-US",
		translations: make(map[string]map[string]string),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadEmbeddedTranslations(); err != nil {
		return nil, err
	}
	if _, ok := m.translations[m.defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no locale file", m.defaultLang)
	}

	// the default language goes first so the matcher falls back to it
	langs := m.Languages()
	sort.SliceStable(langs, func(i, j int) bool { return langs[i] == m.defaultLang && langs[j] != m.defaultLang })
	for _, l := range langs {
		m.tags = append(m.tags, language.MustParse(l))
	}
	m.matcher = language.NewMatcher(m.tags)
	return m, nil
}

func (m *Manager) loadEmbeddedTranslations() error {
	entries, err := embeddedLocales.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("failed to read locales directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		lang := strings.TrimSuffix(entry.Name(), ".json")
		if _, err := language.Parse(lang); err != nil {
			m.logger.Warn("skipping locale with invalid tag", "file", entry.Name(), "error", err)
			continue
		}
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}
		var content map[string]string
		if err := json.Unmarshal(data, &content); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", entry.Name(), err)
		}
		m.translations[lang] = content
	}
	return nil
}

// Match picks the supported language closest to an Accept-Language header
// or a bare tag. Unknown input yields the default language.
func (m *Manager) Match(accept string) string {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return m.defaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return m.defaultLang
	}
	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No {
		return m.defaultLang
	}
	return m.tags[idx].String()
}

// Translate 按语言与键名返回翻译内容，缺失时回退到默认语言，再回退为 key。
func (m *Manager) Translate(lang, key string, args ...any) string {
	for _, l := range []string{m.Match(lang), m.defaultLang} {
		if val, ok := m.translations[l][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(val, args...)
			}
			return val
		}
	}
	return key
}

// Languages 返回支持的语言列表（已排序）。
func (m *Manager) Languages() []string {
	langs := make([]string, 0, len(m.translations))
	for k := range m.translations {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}
