// Package metrics provides the Prometheus registry and scrape handler for the
// catalog client. All metrics are defined in their respective packages
// (catalog, pagination, imagecache, cache) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry read by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving every registered metric.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Catalog Metrics (pkg/catalog):
//   - rm_catalog_requests_total{operation, status} (Counter): Requests by operation and HTTP status
//   - rm_catalog_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - rm_catalog_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - rm_pagination_pages_fetched_total{filter} (Counter): Pages appended by status filter
//   - rm_pagination_fetch_failures_total{class} (Counter): Failed page fetches by error class
//   - rm_pagination_duplicate_items_total (Counter): Appended items whose id was already loaded
//
// Image Cache Metrics (pkg/imagecache):
//   - rm_image_cache_hits_total{layer="memory|redis"} (Counter): Cache hits by layer
//   - rm_image_cache_misses_total (Counter): Requests not served from memory
//   - rm_image_fetches_total{status} (Counter): Network fetches by outcome
//   - rm_image_coalesced_total (Counter): Waiters served by a shared fetch
//   - rm_image_evictions_total (Counter): Images evicted from memory
//   - rm_image_cache_entries (Gauge): Images currently in memory
//   - rm_image_prefetch_failures_total (Counter): Failed prefetch loads
//
// Shared Cache Metrics (pkg/cache):
//   - rm_shared_cache_hits_total (Counter): Redis hits
//   - rm_shared_cache_misses_total (Counter): Redis misses
//   - rm_shared_cache_stored_bytes_total (Counter): Bytes written to Redis
//   - rm_shared_cache_errors_total{operation} (Counter): Redis operation errors
//
// Example Prometheus Queries:
//
//   # Image Cache Hit Rate
//   sum(rate(rm_image_cache_hits_total[5m])) /
//   (sum(rate(rm_image_cache_hits_total[5m])) + sum(rate(rm_image_cache_misses_total[5m])))
//
//   # Coalescing Ratio
//   rate(rm_image_coalesced_total[5m]) / rate(rm_image_cache_misses_total[5m])
//
//   # Page Error Rate
//   rate(rm_catalog_errors_total{class!="client"}[5m])
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(rm_catalog_request_duration_seconds_bucket{operation="page"}[5m]))
