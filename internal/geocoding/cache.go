package geocoding

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache for forward
// and reverse lookups. Radius searches are passed through.
type CachedGeocoder struct {
	inner   Geocoder
	cache   *lruCache
	metrics *metrics.Metrics
}

func NewCachedGeocoder(inner Geocoder, maxEntries int, m *metrics.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: m,
	}
}

func (c *CachedGeocoder) Forward(ctx context.Context, address string) (Place, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(address))
	return c.lookup(key, func() (Place, error) {
		return c.inner.Forward(ctx, address)
	})
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(key, func() (Place, error) {
		return c.inner.Reverse(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) CitiesInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]models.City, error) {
	return c.inner.CitiesInRadius(ctx, lat, lon, radiusKm)
}

func (c *CachedGeocoder) lookup(key string, fetch func() (Place, error)) (Place, error) {
	if p, ok := c.cache.get(key); ok {
		c.metrics.ObserveCache("geocode", true)
		return p, nil
	}
	c.metrics.ObserveCache("geocode", false)

	p, err := fetch()
	if err != nil {
		return p, err
	}
	// Only cache matches so a transient "not found" can be retried.
	if p.Found() {
		c.cache.put(key, p)
	}
	return p, nil
}

// lruCache is a thread-safe LRU of Places keyed by lookup.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value Place
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Place{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
