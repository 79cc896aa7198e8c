package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/listing-resolver/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 30},
		Logging:     config.LoggingConfig{Development: true},
		Marketplace: config.MarketplaceConfig{Host: "marketplace.example", ShortLinkHosts: []string{"short.example"}},
		Strategies: config.StrategiesConfig{
			RedirectTimeoutSeconds: 1,
			MarkupTimeoutSeconds:   1,
			PreviewTimeoutSeconds:  1,
			FallbackTimeoutSeconds: 1,
		},
		HTTP:      config.HTTPConfig{TimeoutSeconds: 1, MaxBodyBytes: 1 << 20},
		Telemetry: config.TelemetryConfig{ServiceName: "listing-resolver-test"},
	}
}

// Not parallel: Build installs global logger and tracer providers.
func TestBuild_InMemoryDefaults(t *testing.T) {
	app, err := Build(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	require.Nil(t, app.pgStore)
	require.Nil(t, app.pubsubClient)
	require.Nil(t, app.headless)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"url":"https://elsewhere.example/dp/B0ABCDEFGH"}`)
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/listings/resolve", body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/listings/B0ABCDEFGH", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuild_InvalidDSN(t *testing.T) {
	cfg := testConfig()
	cfg.DB = config.DBConfig{DSN: "://not-a-dsn", Table: "listings"}

	_, err := Build(context.Background(), cfg)
	require.ErrorContains(t, err, "catalog store init failed")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
}
