// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/empathyhealth/sitesnap/internal/canonical"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig    `mapstructure:"server"`
	Render     RenderConfig    `mapstructure:"render"`
	Snapshot   SnapshotConfig  `mapstructure:"snapshot"`
	Canonical  CanonicalConfig `mapstructure:"canonical"`
	Content    ContentConfig   `mapstructure:"content"`
	Verify     VerifyConfig    `mapstructure:"verify"`
	Validation ValidateConfig  `mapstructure:"validate"`
	Logging    LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	StaticDir       string `mapstructure:"static_dir"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout_seconds"`
}

// RenderConfig governs the headless rendering pipeline.
type RenderConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	MaxParallel     int      `mapstructure:"max_parallel"`
	NavTimeoutSec   int      `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs   int      `mapstructure:"settle_delay_ms"`
	MinTextLen      int      `mapstructure:"min_text_len"`
	MinLinks        int      `mapstructure:"min_links"`
	UserAgent       string   `mapstructure:"user_agent"`
	BlockedHosts    []string `mapstructure:"blocked_hosts"`
	ExtraRoutes     []string `mapstructure:"extra_routes"`
	SkipStaticPages bool     `mapstructure:"skip_static_pages"`
}

// SnapshotConfig sets where the prerendered tree lives.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// CanonicalConfig controls URL canonicalization and redirect rules.
type CanonicalConfig struct {
	PreferredScheme string           `mapstructure:"preferred_scheme"`
	PreferredHost   string           `mapstructure:"preferred_host"`
	MaxHops         int              `mapstructure:"max_hops"`
	Rules           []canonical.Rule `mapstructure:"rules"`
	SlugCacheTTLMin int              `mapstructure:"slug_cache_ttl_minutes"`
}

// ContentConfig controls access to the content database.
type ContentConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// VerifyConfig tunes the manifest verification gate.
type VerifyConfig struct {
	MinLinks         int      `mapstructure:"min_links"`
	LowLinkAllowlist []string `mapstructure:"low_link_allowlist"`
}

// ValidateConfig tunes the redirect validator.
type ValidateConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	MaxHops           int    `mapstructure:"max_hops"`
	MinContentSize    int    `mapstructure:"min_content_size"`
	TimeoutSec        int    `mapstructure:"timeout_seconds"`
	MissingDestsLimit int    `mapstructure:"missing_dests_limit"`
	ReportPath        string `mapstructure:"report_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITESNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "dist/public")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("render.base_url", "http://localhost:5000")
	v.SetDefault("render.max_parallel", 3)
	v.SetDefault("render.nav_timeout_seconds", 30)
	v.SetDefault("render.settle_delay_ms", 1500)
	v.SetDefault("render.min_text_len", 500)
	v.SetDefault("render.min_links", 5)
	v.SetDefault("snapshot.dir", "dist/public/prerendered")
	v.SetDefault("canonical.preferred_scheme", "https")
	v.SetDefault("canonical.max_hops", 5)
	v.SetDefault("canonical.slug_cache_ttl_minutes", 1440)
	v.SetDefault("content.max_conns", 4)
	v.SetDefault("content.min_conns", 1)
	v.SetDefault("content.conn_lifetime_minutes", 30)
	v.SetDefault("verify.min_links", 5)
	v.SetDefault("verify.low_link_allowlist", []string{"/contact"})
	v.SetDefault("validate.max_hops", 5)
	v.SetDefault("validate.min_content_size", 5000)
	v.SetDefault("validate.timeout_seconds", 10)
	v.SetDefault("validate.missing_dests_limit", 5)
	v.SetDefault("validate.report_path", "redirect-validation-report.json")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Render.MaxParallel <= 0 {
		return fmt.Errorf("render.max_parallel must be > 0")
	}
	if c.Render.NavTimeoutSec <= 0 {
		return fmt.Errorf("render.nav_timeout_seconds must be > 0")
	}
	if c.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot.dir must be set")
	}
	if c.Canonical.PreferredScheme != "http" && c.Canonical.PreferredScheme != "https" {
		return fmt.Errorf("canonical.preferred_scheme must be http or https")
	}
	if c.Validation.MaxHops <= 0 {
		return fmt.Errorf("validate.max_hops must be > 0")
	}
	return nil
}

// NavTimeout converts the rendering timeout config into a duration.
func (c RenderConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// SettleDelay converts the settle delay config into a duration.
func (c RenderConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ConnLifetime converts the pool lifetime config into a duration.
func (c ContentConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMin) * time.Minute
}

// SlugCacheTTL converts the slug cache TTL config into a duration.
func (c CanonicalConfig) SlugCacheTTL() time.Duration {
	return time.Duration(c.SlugCacheTTLMin) * time.Minute
}
