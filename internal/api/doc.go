// Package api hosts the HTTP server, middleware, and handlers of the discovery
// service. Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /scraper/discover to start one actor run per platform.
//   - GET /scraper/runs/{run_id} to poll a run.
//   - POST /webhooks/apify/competitors for run completion callbacks.
package api
