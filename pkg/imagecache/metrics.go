package imagecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imageCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_image_cache_hits_total",
		Help: "Image cache hits by layer",
	}, []string{"layer"}) // "memory", "redis"

	imageCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_image_cache_misses_total",
		Help: "Image requests not served from memory",
	})

	imageFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_image_fetches_total",
		Help: "Image network fetches by outcome",
	}, []string{"status"})

	imageCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_image_coalesced_total",
		Help: "Image waiters served by a fetch shared with other callers",
	})

	imageEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_image_evictions_total",
		Help: "Images evicted from memory",
	})

	imageEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rm_image_cache_entries",
		Help: "Images currently held in memory",
	})

	prefetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_image_prefetch_failures_total",
		Help: "Prefetch loads that failed",
	})
)
