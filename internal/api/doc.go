// Package api hosts the HTTP server, middleware, and REST handlers for the
// listing resolver. Routes:
//   - GET /healthz and /readyz for Kubernetes and Cloud Run probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/listings/resolve to resolve a listing URL and store the result.
//   - GET /v1/listings/{identifier} to read a stored listing.
package api
