package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Profile ProfileConfig `mapstructure:"profile"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// ConvertTimeout bounds one conversion including every download.
	ConvertTimeout time.Duration `mapstructure:"convert_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	// RateLimit 每个 IP 每分钟请求数，0 表示不限流。
	RateLimit int `mapstructure:"rate_limit"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// FetchConfig 订阅与规则文件下载配置。
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"user_agent"`
	// Concurrency bounds parallel downloads per conversion; 0 means unbounded.
	Concurrency int `mapstructure:"concurrency"`
}

// ProfileConfig 用户规则配置文件位置。
type ProfileConfig struct {
	Path string `mapstructure:"path"`
}

// RulesConfig 规则文件刷新配置。
type RulesConfig struct {
	// RefreshSpec is a cron expression; empty disables scheduled refresh.
	RefreshSpec string        `mapstructure:"refresh_spec"`
	JobTimeout  time.Duration `mapstructure:"job_timeout"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
