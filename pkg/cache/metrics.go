package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks Redis hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rm_shared_cache_hits_total",
			Help: "Total number of shared cache hits",
		},
	)

	// CacheMisses tracks Redis misses, including expired entries
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rm_shared_cache_misses_total",
			Help: "Total number of shared cache misses",
		},
	)

	// StoredBytes tracks bytes written to Redis
	StoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rm_shared_cache_stored_bytes_total",
			Help: "Total bytes written to the shared cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_shared_cache_errors_total",
			Help: "Total number of shared cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
