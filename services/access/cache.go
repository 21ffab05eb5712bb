package access

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{Name: "access_cache_hits_total"})
	cacheMiss = promauto.NewCounter(prometheus.CounterOpts{Name: "access_cache_miss_total"})
)

// ResolutionKey is the memoization tuple: the caller's execution context.
// Keying by the request identity alone lets a cache hit skip the tenant
// lookup entirely; staleness is bounded by the TTL and by explicit
// invalidation on subscription changes.
type ResolutionKey struct {
	IsSuperAdmin bool
	Mode         Mode
	TenantID     string
}

type cacheEntry struct {
	access    Access
	updatedAt time.Time
}

// ResolutionCache is a thread-safe TTL cache over resolved access values.
type ResolutionCache struct {
	mu    sync.RWMutex
	items map[ResolutionKey]cacheEntry
	ttl   time.Duration
}

func NewResolutionCache(ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{
		items: make(map[ResolutionKey]cacheEntry),
		ttl:   ttl,
	}
}

func (c *ResolutionCache) Get(key ResolutionKey) (Access, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok || (c.ttl > 0 && time.Since(v.updatedAt) > c.ttl) {
		cacheMiss.Inc()
		return Access{}, false
	}
	cacheHits.Inc()
	return v.access, true
}

func (c *ResolutionCache) Set(key ResolutionKey, access Access) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{access: access, updatedAt: time.Now()}
}

// InvalidateTenant drops every cached resolution for a tenant. Called after
// billing reconciliation touches the tenant record.
func (c *ResolutionCache) InvalidateTenant(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if key.TenantID == tenantID {
			delete(c.items, key)
		}
	}
}

func keyFor(ec ExecutionContext) ResolutionKey {
	return ResolutionKey{
		IsSuperAdmin: ec.IsSuperAdmin,
		Mode:         ec.Mode,
		TenantID:     ec.TenantID,
	}
}
