// Package cache provides the shared Redis byte tier behind the in-memory
// image cache.
//
// Entries hold raw response bytes together with their expiry, taken from
// the origin's Expires or Cache-Control max-age header. Redis removes an
// entry when its TTL elapses; Get additionally treats expired entries as
// misses.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key, err := cache.KeyFromURL("image", "https://rickandmortyapi.com/api/character/avatar/1.jpeg")
//	if err != nil {
//		return err
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from origin
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp, cache.DefaultMaxBodyBytes)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Metrics
//
//   - rm_shared_cache_hits_total - Redis hits
//   - rm_shared_cache_misses_total - Redis misses
//   - rm_shared_cache_stored_bytes_total - Bytes written
//   - rm_shared_cache_errors_total{operation} - Redis operation errors
package cache
