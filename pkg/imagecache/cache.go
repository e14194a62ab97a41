package imagecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/rm-catalog-client/pkg/cache"
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrCanceled is returned by a Handle that was cancelled before its
	// load finished.
	ErrCanceled = errors.New("image load canceled")

	// ErrInvalidURL is returned for keys that are not absolute URLs.
	ErrInvalidURL = errors.New("invalid image url")
)

// sharedNamespace prefixes image keys in the Redis tier.
const sharedNamespace = "image"

// Config holds the image cache configuration.
type Config struct {
	// MaxEntries is the number of decoded images kept in memory.
	MaxEntries int

	// UserAgent header for image requests.
	UserAgent string

	// Timeout is the transport timeout for one image request.
	Timeout time.Duration

	// MaxBodyBytes bounds the size of one image payload.
	MaxBodyBytes int64

	// PrefetchConcurrency is the number of Prefetch workers.
	PrefetchConcurrency int

	// Shared is an optional Redis tier consulted before the network.
	Shared *cache.Manager

	// HTTPClient overrides the client built from Timeout (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration sized for a scrolling list.
func DefaultConfig() Config {
	return Config{
		MaxEntries:          256,
		UserAgent:           "rm-catalog-client/0.1.0",
		Timeout:             30 * time.Second,
		MaxBodyBytes:        cache.DefaultMaxBodyBytes,
		PrefetchConcurrency: 4,
	}
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries        int
	NetworkFetches int64
	SharedHits     int64
}

// Cache is a memory-bounded, request-coalescing image cache. It is safe
// for concurrent use.
type Cache struct {
	memory     *lru.Cache
	group      singleflight.Group
	httpClient *http.Client
	shared     *cache.Manager
	config     Config
	logger     zerolog.Logger

	networkFetches atomic.Int64
	sharedHits     atomic.Int64
}

// New creates an image cache.
func New(cfg Config) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("max entries must be > 0 (got %d)", cfg.MaxEntries)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = cache.DefaultMaxBodyBytes
	}
	if cfg.PrefetchConcurrency <= 0 {
		cfg.PrefetchConcurrency = 4
	}

	logger := logging.NewLogger("image-cache")

	memory, err := lru.NewWithEvict(cfg.MaxEntries, func(key, _ interface{}) {
		imageEvictionsTotal.Inc()
		logger.Debug().Str("key", key.(string)).Msg("Image evicted")
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Cache{
		memory:     memory,
		httpClient: httpClient,
		shared:     cfg.Shared,
		config:     cfg,
		logger:     logger,
	}, nil
}

// NormalizeKey returns the cache key for a URL: the string form of the
// parsed absolute URL.
func NormalizeKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}
	return u.String(), nil
}

// Get returns a cached image without touching the network.
func (c *Cache) Get(rawURL string) (*Image, bool) {
	key, err := NormalizeKey(rawURL)
	if err != nil {
		return nil, false
	}
	return c.lookup(key)
}

func (c *Cache) lookup(key string) (*Image, bool) {
	v, ok := c.memory.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Image), true
}

// Contains reports whether rawURL is in memory without updating recency.
func (c *Cache) Contains(rawURL string) bool {
	key, err := NormalizeKey(rawURL)
	if err != nil {
		return false
	}
	return c.memory.Contains(key)
}

// Len returns the number of images in memory.
func (c *Cache) Len() int {
	return c.memory.Len()
}

// Purge drops every image from memory.
func (c *Cache) Purge() {
	c.memory.Purge()
	imageEntries.Set(0)
}

// Stats returns cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:        c.memory.Len(),
		NetworkFetches: c.networkFetches.Load(),
		SharedHits:     c.sharedHits.Load(),
	}
}

// Load returns the image for rawURL, fetching it if needed. Cancelling ctx
// abandons this caller's wait only.
func (c *Cache) Load(ctx context.Context, rawURL string) (*Image, error) {
	h := c.Request(rawURL)
	defer h.Cancel()
	return h.Wait(ctx)
}

// Request starts or joins the load for rawURL and returns a handle for
// this caller. A memory hit yields an already resolved handle.
func (c *Cache) Request(rawURL string) *Handle {
	key, err := NormalizeKey(rawURL)
	if err != nil {
		return resolvedHandle("", nil, err)
	}

	if img, ok := c.lookup(key); ok {
		imageCacheHits.WithLabelValues("memory").Inc()
		c.logger.Debug().Str("key", key).Msg("Image cache hit")
		return resolvedHandle(key, img, nil)
	}

	imageCacheMisses.Inc()
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetch(key)
	})
	return waitingHandle(key, ch)
}

// fetch runs once per key at a time inside the singleflight group. It is
// not tied to any caller's context so that one caller leaving does not
// fail the others.
func (c *Cache) fetch(key string) (*Image, error) {
	// A flight that finished after the caller's miss has already stored it.
	if img, ok := c.lookup(key); ok {
		return img, nil
	}

	ctx := context.Background()

	if img, ok := c.fromShared(ctx, key); ok {
		c.store(key, img)
		return img, nil
	}

	img, entry, err := c.fromNetwork(ctx, key)
	if err != nil {
		imageFetchesTotal.WithLabelValues(fetchStatus(err)).Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Image load failed")
		return nil, err
	}
	imageFetchesTotal.WithLabelValues("ok").Inc()

	c.store(key, img)
	c.toShared(ctx, key, entry)

	c.logger.Debug().
		Str("key", key).
		Str("format", img.Format).
		Int("bytes", img.Size).
		Msg("Image loaded")

	return img, nil
}

func (c *Cache) store(key string, img *Image) {
	c.memory.Add(key, img)
	imageEntries.Set(float64(c.memory.Len()))
}

func (c *Cache) fromNetwork(ctx context.Context, key string) (*Image, *cache.CacheEntry, error) {
	c.networkFetches.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &catalog.NetworkError{URL: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &catalog.HTTPStatusError{URL: key, StatusCode: resp.StatusCode}
	}

	entry, err := cache.ResponseToEntry(resp, c.config.MaxBodyBytes)
	if err != nil {
		if errors.Is(err, cache.ErrBodyTooLarge) {
			return nil, nil, &catalog.DecodeError{URL: key, Err: err}
		}
		return nil, nil, &catalog.NetworkError{URL: key, Err: err}
	}

	img, err := decode(key, entry.Data)
	if err != nil {
		return nil, nil, &catalog.DecodeError{URL: key, Err: err}
	}
	return img, entry, nil
}

// fromShared reads the Redis tier. Errors and undecodable bytes fall
// through to the network.
func (c *Cache) fromShared(ctx context.Context, key string) (*Image, bool) {
	if c.shared == nil {
		return nil, false
	}

	sharedKey, err := cache.KeyFromURL(sharedNamespace, key)
	if err != nil {
		return nil, false
	}

	entry, err := c.shared.Get(ctx, sharedKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Shared cache get error")
		}
		return nil, false
	}

	img, err := decode(key, entry.Data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable shared entry")
		_ = c.shared.Delete(ctx, sharedKey)
		return nil, false
	}

	c.sharedHits.Add(1)
	imageCacheHits.WithLabelValues("redis").Inc()
	return img, true
}

func (c *Cache) toShared(ctx context.Context, key string, entry *cache.CacheEntry) {
	if c.shared == nil || entry == nil {
		return
	}
	sharedKey, err := cache.KeyFromURL(sharedNamespace, key)
	if err != nil {
		return
	}
	if err := c.shared.Set(ctx, sharedKey, entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to store image in shared cache")
	}
}

func fetchStatus(err error) string {
	var statusErr *catalog.HTTPStatusError
	if errors.As(err, &statusErr) {
		return strconv.Itoa(statusErr.StatusCode)
	}
	if class := catalog.Classify(err); class != "" {
		return string(class)
	}
	return "error"
}
