package geocoder

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/jellydator/ttlcache/v3"
)

// Cached memoises another geocoder. Positions are keyed at five decimals
// (about one metre). Errors are not cached.
type Cached struct {
	next  Geocoder
	cache *ttlcache.Cache[string, Address]
}

// NewCached wraps next with a cache whose entries live for ttl.
// Call Stop to release the expiry goroutine.
func NewCached(next Geocoder, ttl time.Duration) *Cached {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, Address](ttl),
		ttlcache.WithDisableTouchOnHit[string, Address](),
	)
	go cache.Start()

	return &Cached{next: next, cache: cache}
}

// Reverse returns the cached address or asks the wrapped geocoder.
func (c *Cached) Reverse(ctx context.Context, p geo.LatLng) (Address, error) {
	key := fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)

	if item := c.cache.Get(key); item != nil {
		recordCacheLookup(true)
		return item.Value(), nil
	}
	recordCacheLookup(false)

	addr, err := c.next.Reverse(ctx, p)
	if err != nil {
		return Address{}, err
	}
	c.cache.Set(key, addr, ttlcache.DefaultTTL)
	cacheEntries.Set(float64(c.Len()))
	return addr, nil
}

// Len returns the number of cached positions.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Stop stops the expiry goroutine.
func (c *Cached) Stop() {
	c.cache.Stop()
}
