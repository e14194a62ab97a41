package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey identifies one cached resource.
type CacheKey struct {
	// Namespace separates kinds of resources (e.g. "image")
	Namespace string

	// Host is the origin host including port
	Host string

	// Path is the resource path
	Path string

	// QueryParams are the query parameters, if any
	QueryParams url.Values
}

// KeyFromURL builds a key for an absolute URL.
func KeyFromURL(namespace, rawURL string) (CacheKey, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CacheKey{}, fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return CacheKey{}, fmt.Errorf("url must be absolute: %q", rawURL)
	}
	return CacheKey{
		Namespace:   namespace,
		Host:        strings.ToLower(u.Host),
		Path:        u.EscapedPath(),
		QueryParams: u.Query(),
	}, nil
}

// String generates a deterministic cache key string.
// Format: rm:namespace:host/path:query1=val1:query2=val2
//
// Example:
//
//	rm:image:rickandmortyapi.com/api/character/avatar/1.jpeg
func (k CacheKey) String() string {
	parts := []string{"rm"}

	if k.Namespace != "" {
		parts = append(parts, k.Namespace)
	}

	resource := k.Host + "/" + strings.Trim(k.Path, "/")
	if resource != "/" {
		parts = append(parts, strings.TrimSuffix(resource, "/"))
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
