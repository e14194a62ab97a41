package imagecache

import (
	"context"
	"sync"
	"time"
)

// PrefetchResult summarizes one Prefetch call.
type PrefetchResult struct {
	Requested int
	Loaded    int
	Failed    int
}

// Prefetch warms the cache for urls using a bounded worker pool. Failures
// are logged and counted; they never stop the other loads. Duplicate and
// already cached URLs are cheap because Load coalesces them.
func (c *Cache) Prefetch(ctx context.Context, urls []string) PrefetchResult {
	start := time.Now()
	result := PrefetchResult{Requested: len(urls)}
	if len(urls) == 0 {
		return result
	}

	workers := c.config.PrefetchConcurrency
	if workers > len(urls) {
		workers = len(urls)
	}

	queue := make(chan string, len(urls))
	for _, u := range urls {
		queue <- u
	}
	close(queue)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			loaded, failed := c.prefetchWorker(ctx, queue, workerID)
			mu.Lock()
			result.Loaded += loaded
			result.Failed += failed
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	c.logger.Debug().
		Int("requested", result.Requested).
		Int("loaded", result.Loaded).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("Prefetch complete")

	return result
}

// prefetchWorker processes URLs from the queue until it is drained or ctx ends.
func (c *Cache) prefetchWorker(ctx context.Context, queue <-chan string, workerID int) (loaded, failed int) {
	for u := range queue {
		select {
		case <-ctx.Done():
			c.logger.Debug().
				Int("worker_id", workerID).
				Int("loaded", loaded).
				Msg("Prefetch worker stopping (context cancelled)")
			return loaded, failed
		default:
		}

		if _, err := c.Load(ctx, u); err != nil {
			failed++
			prefetchFailuresTotal.Inc()
			c.logger.Debug().
				Err(err).
				Int("worker_id", workerID).
				Str("url", u).
				Msg("Prefetch load failed")
			continue
		}
		loaded++
	}
	return loaded, failed
}
