package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, "amazon.com", cfg.Marketplace.Host)
	require.Equal(t, []string{"amzn.to", "a.co"}, cfg.Marketplace.ShortLinkHosts)
	require.Equal(t, "listings", cfg.DB.Table)
	require.Equal(t, 2048, cfg.Headless.PromotionThresh)
	require.Equal(t, "listing-resolver", cfg.Telemetry.ServiceName)

	rc := cfg.ResolverConfig()
	require.Equal(t, 5*time.Second, rc.RedirectTimeout)
	require.Equal(t, 8*time.Second, rc.MarkupTimeout)
	require.Equal(t, 8*time.Second, rc.PreviewTimeout)
	require.Equal(t, 500*time.Millisecond, rc.PreviewDelay)
	require.Equal(t, 20*time.Second, rc.FallbackTimeout)
	require.Equal(t, 60*time.Second, cfg.RequestBudget())
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout_seconds: 90
auth:
  enabled: true
  api_key: secret
logging:
  development: false
marketplace:
  host: marketplace.example
  short_link_hosts: ["short.example"]
strategies:
  redirect_timeout_seconds: 2
  markup_timeout_seconds: 3
  preview_timeout_seconds: 4
  preview_delay_ms: 250
  fallback_timeout_seconds: 30
http:
  timeout_seconds: 45
headless:
  enabled: true
  max_parallel: 2
  nav_timeout_seconds: 30
db:
  dsn: postgres://localhost/listings
  table: catalog.listings
pubsub:
  project_id: proj
  topic_name: listings
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "secret", cfg.Auth.APIKey)
	require.False(t, cfg.Logging.Development)
	require.True(t, cfg.Headless.Enabled)
	require.Equal(t, "catalog.listings", cfg.DB.Table)
	require.Equal(t, "listings", cfg.PubSub.TopicName)
	require.Equal(t, 90*time.Second, cfg.RequestBudget())

	rc := cfg.ResolverConfig()
	require.Equal(t, "marketplace.example", rc.MarketplaceHost)
	require.Equal(t, []string{"short.example"}, rc.ShortLinkHosts)
	require.Equal(t, 2*time.Second, rc.RedirectTimeout)
	require.Equal(t, 3*time.Second, rc.MarkupTimeout)
	require.Equal(t, 4*time.Second, rc.PreviewTimeout)
	require.Equal(t, 250*time.Millisecond, rc.PreviewDelay)
	require.Equal(t, 30*time.Second, rc.FallbackTimeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RESOLVER_MARKETPLACE_HOST", "marketplace.example")
	t.Setenv("RESOLVER_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "marketplace.example", cfg.Marketplace.Host)
	require.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:      ServerConfig{Port: 8080, RequestTimeoutSeconds: 60},
		Marketplace: MarketplaceConfig{Host: "marketplace.example"},
		Strategies: StrategiesConfig{
			RedirectTimeoutSeconds: 5,
			MarkupTimeoutSeconds:   8,
			PreviewTimeoutSeconds:  8,
			FallbackTimeoutSeconds: 20,
		},
		HTTP: HTTPConfig{TimeoutSeconds: 10},
		DB:   DBConfig{Table: "listings"},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"invalid request timeout", func(c *Config) { c.Server.RequestTimeoutSeconds = 0 }, "server.request_timeout_seconds"},
		{"missing marketplace", func(c *Config) { c.Marketplace.Host = " " }, "marketplace.host"},
		{"invalid strategy timeout", func(c *Config) { c.Strategies.MarkupTimeoutSeconds = 0 }, "strategies"},
		{"negative preview delay", func(c *Config) { c.Strategies.PreviewDelayMs = -1 }, "strategies.preview_delay_ms"},
		{"invalid http timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
		{"headless missing max parallel", func(c *Config) {
			c.Headless.Enabled = true
			c.Headless.MaxParallel = 0
		}, "headless.max_parallel"},
		{"auth missing api key", func(c *Config) { c.Auth.Enabled = true }, "auth.api_key"},
		{"bad table name", func(c *Config) {
			c.DB.DSN = "postgres://localhost/x"
			c.DB.Table = "listings; drop table x"
		}, "db.table"},
		{"pubsub half configured", func(c *Config) { c.PubSub.TopicName = "listings" }, "pubsub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
