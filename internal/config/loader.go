package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SUBCONV_HTTP_ADDR.
const EnvPrefix = "SUBCONV"

// Load reads defaults, then the config file, then SUBCONV_* environment
// variables. An empty file searches ./config.yaml and /etc/subconv/config.yaml;
// a missing file is not an error unless it was named explicitly.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/subconv/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return errors.New("config: http.addr is required")
	case c.HTTP.MaxBodyBytes < 0:
		return errors.New("config: http.max_body_bytes must not be negative")
	case c.Fetch.Retries < 0:
		return errors.New("config: fetch.retries must not be negative")
	case c.Fetch.MaxBytes < 0:
		return errors.New("config: fetch.max_bytes must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.convert_timeout", "60s")
	v.SetDefault("http.max_body_bytes", 10<<20)
	v.SetDefault("http.rate_limit", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)

	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.max_bytes", 5<<20)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.user_agent", "clash")
	v.SetDefault("fetch.concurrency", 0)

	v.SetDefault("profile.path", "rules.yaml")

	v.SetDefault("rules.refresh_spec", "")
	v.SetDefault("rules.job_timeout", "2m")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "subconv")
	v.SetDefault("metrics.token", "")
}
