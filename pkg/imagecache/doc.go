// Package imagecache loads and caches decoded character images.
//
// Lookups are served from an in-memory LRU store first. On a miss exactly
// one fetch per key runs at a time: concurrent callers asking for the same
// URL share the outstanding request (see golang.org/x/sync/singleflight)
// and all receive its image or its error. Failed loads are never cached.
//
// Each call to Request returns a Handle. Cancelling a Handle releases only
// that caller; the shared fetch keeps running for the remaining waiters and
// still populates the cache.
//
//	c, err := imagecache.New(imagecache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	h := c.Request(character.Image)
//	defer h.Cancel() // row recycled
//	img, err := h.Wait(ctx)
//
// An optional Redis tier (pkg/cache) is consulted inside the fetch before
// the network, so several processes can share downloaded bytes.
package imagecache
