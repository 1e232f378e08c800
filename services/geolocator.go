package services

import (
	"context"
	"sync"
	"time"

	"devicetracker/models"
)

// Geolocator resolves a public IP to a location. Implementations return an
// error on any failure; callers turn that into a failure marker.
type Geolocator interface {
	Lookup(ctx context.Context, ip string) (models.Geolocation, error)
}

type geoCacheEntry struct {
	geo       models.Geolocation
	expiresAt time.Time
}

// CachingGeolocator memoises successful lookups for ttl. Failures are not cached.
type CachingGeolocator struct {
	next Geolocator
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]geoCacheEntry
}

func NewCachingGeolocator(next Geolocator, ttl time.Duration) *CachingGeolocator {
	return &CachingGeolocator{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]geoCacheEntry),
	}
}

func (c *CachingGeolocator) Lookup(ctx context.Context, ip string) (models.Geolocation, error) {
	c.mu.RLock()
	e, ok := c.items[ip]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.geo, nil
	}

	geo, err := c.next.Lookup(ctx, ip)
	if err != nil {
		return geo, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.items[ip] = geoCacheEntry{geo: geo, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
	}
	return geo, nil
}
