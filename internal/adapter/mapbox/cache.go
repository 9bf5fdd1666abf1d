package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/snowpit-service/internal/cache"
	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// CacheObserver is notified of cache hits and misses.
type CacheObserver interface {
	GeocodeCacheHit()
	GeocodeCacheMiss()
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner    domain.Geocoder
	cache    *cache.LRU[string, domain.GeocodingResult]
	observer CacheObserver
}

// NewCachedGeocoder creates a cache decorator around a geocoder. observer may be nil.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, observer CacheObserver) *CachedGeocoder {
	return &CachedGeocoder{
		inner:    inner,
		cache:    cache.New[string, domain.GeocodingResult](maxEntries),
		observer: observer,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if result, ok := c.cache.Get(key); ok {
		if c.observer != nil {
			c.observer.GeocodeCacheHit()
		}
		return result, nil
	}
	if c.observer != nil {
		c.observer.GeocodeCacheMiss()
	}
	result, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Put(key, result)
	}
	return result, nil
}
