// Command discovery runs the competitor discovery HTTP service.
//
// It accepts discovery queries, starts one scraping actor run per platform,
// and persists the bounded, normalized results when the actor platform calls
// back on run completion.
//
// Configuration is read from an optional YAML file (-config) and from
// DISCOVERY_* environment variables; API_TOKEN, WEBHOOK_CALLBACK_URL,
// STORE_URL, STORE_KEY and PORT are also accepted as plain names.
package main
