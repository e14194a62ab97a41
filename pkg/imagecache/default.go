package imagecache

import "sync"

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default returns the process-wide cache built from DefaultConfig on
// first use. Prefer passing a *Cache explicitly; Default exists for
// callers that have no place to hold one.
func Default() *Cache {
	defaultOnce.Do(func() {
		c, err := New(DefaultConfig())
		if err != nil {
			panic("imagecache: default config rejected: " + err.Error())
		}
		defaultCache = c
	})
	return defaultCache
}
