// Package main hosts the listing resolver service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, and listing endpoints. POST /v1/listings/resolve takes a
//     marketplace or short-link URL, resolves it, stores the listing, and returns the stored record.
//   - Resolution: internal/resolver normalizes the URL (following short links once), extracts the 10 character item
//     identifier, then tries three strategies in order: product markup, link-preview tags fetched with several client
//     identities, and a full-page fallback. Images are ranked by the scorer when no authoritative image is found.
//   - Fetch pipeline: a Colly-based fetcher performs plain GET and HEAD requests with per-identity headers. When
//     headless is enabled the fallback strategy renders through Chromedp instead.
//   - Persistence & fanout: listings are upserted by identifier into Postgres (or memory when no DSN is set), and a
//     listing.resolved event is published to Pub/Sub when a topic is configured.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler; OpenTelemetry trace context is propagated
//     into published events.
//
// Operational notes:
//   - Each resolution is independent and stateless. Every outbound call is bounded by its strategy timeout, and the
//     whole request by server.request_timeout_seconds.
//   - No retries happen within a strategy; the next strategy is the retry.
//   - Cloud Run: the HTTP server listens on the configured port and shuts down cleanly on SIGTERM.
//
// Quick checklist:
//   - Configure env vars: RESOLVER_SERVER_PORT, RESOLVER_MARKETPLACE_HOST, RESOLVER_STRATEGIES_*,
//     RESOLVER_HEADLESS_ENABLED, RESOLVER_DB_DSN, RESOLVER_PUBSUB_PROJECT_ID and RESOLVER_PUBSUB_TOPIC_NAME.
//   - Run locally: go run ./cmd/resolver -config config.yaml (or rely solely on env overrides).
package main
