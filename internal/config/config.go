// Package config loads and validates resolver service configuration via Viper.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

var validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Strategies  StrategiesConfig  `mapstructure:"strategies"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Headless    HeadlessConfig    `mapstructure:"headless"`
	DB          DBConfig          `mapstructure:"db"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MarketplaceConfig names the single supported marketplace and its short links.
type MarketplaceConfig struct {
	Host           string   `mapstructure:"host"`
	ShortLinkHosts []string `mapstructure:"short_link_hosts"`
}

// StrategiesConfig holds the per-strategy time budgets.
type StrategiesConfig struct {
	RedirectTimeoutSeconds int `mapstructure:"redirect_timeout_seconds"`
	MarkupTimeoutSeconds   int `mapstructure:"markup_timeout_seconds"`
	PreviewTimeoutSeconds  int `mapstructure:"preview_timeout_seconds"`
	PreviewDelayMs         int `mapstructure:"preview_delay_ms"`
	FallbackTimeoutSeconds int `mapstructure:"fallback_timeout_seconds"`
}

// HTTPConfig configures the plain page fetcher.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int `mapstructure:"max_body_bytes"`
}

// HeadlessConfig configures the optional rendering fetcher.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs int  `mapstructure:"settle_delay_ms"`
	// PromotionThresh is the body size under which script-heavy pages are
	// rendered. Zero renders every fallback page.
	PromotionThresh int `mapstructure:"promotion_threshold"`
}

// DBConfig controls access to the catalog database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for listing notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// TelemetryConfig names the service in traces and logs.
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RESOLVER")
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
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("marketplace.host", "amazon.com")
	v.SetDefault("marketplace.short_link_hosts", []string{"amzn.to", "a.co"})
	v.SetDefault("strategies.redirect_timeout_seconds", 5)
	v.SetDefault("strategies.markup_timeout_seconds", 8)
	v.SetDefault("strategies.preview_timeout_seconds", 8)
	v.SetDefault("strategies.preview_delay_ms", 500)
	v.SetDefault("strategies.fallback_timeout_seconds", 20)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_body_bytes", 10<<20)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 20)
	v.SetDefault("headless.settle_delay_ms", 500)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("db.table", "listings")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("telemetry.service_name", "listing-resolver")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Marketplace.Host) == "" {
		return fmt.Errorf("marketplace.host must be set")
	}
	s := c.Strategies
	if s.RedirectTimeoutSeconds <= 0 || s.MarkupTimeoutSeconds <= 0 ||
		s.PreviewTimeoutSeconds <= 0 || s.FallbackTimeoutSeconds <= 0 {
		return fmt.Errorf("strategies timeouts must be > 0")
	}
	if s.PreviewDelayMs < 0 {
		return fmt.Errorf("strategies.preview_delay_ms must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.DB.DSN != "" && !validTableName.MatchString(c.DB.Table) {
		return fmt.Errorf("db.table %q is not a valid identifier", c.DB.Table)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// ResolverConfig projects the strategy and marketplace settings into the core.
func (c Config) ResolverConfig() resolver.Config {
	return resolver.Config{
		MarketplaceHost: c.Marketplace.Host,
		ShortLinkHosts:  append([]string(nil), c.Marketplace.ShortLinkHosts...),
		RedirectTimeout: seconds(c.Strategies.RedirectTimeoutSeconds),
		MarkupTimeout:   seconds(c.Strategies.MarkupTimeoutSeconds),
		PreviewTimeout:  seconds(c.Strategies.PreviewTimeoutSeconds),
		PreviewDelay:    time.Duration(c.Strategies.PreviewDelayMs) * time.Millisecond,
		FallbackTimeout: seconds(c.Strategies.FallbackTimeoutSeconds),
	}
}

// RequestBudget bounds one API request end to end.
func (c Config) RequestBudget() time.Duration {
	return seconds(c.Server.RequestTimeoutSeconds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
