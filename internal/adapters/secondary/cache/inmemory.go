package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/denchenko/gmm/internal/core/domain"
)

type entry struct {
	page    *domain.Page[domain.ProjectSummary]
	expires time.Time
}

// InMemoryCache is an in-memory thread-safe cache with a fixed time to live.
type InMemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries sync.Map // map[string]entry
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		ttl: ttl,
		now: time.Now,
	}
}

// GetProjects retrieves a search page by key.
func (c *InMemoryCache) GetProjects(key string) (*domain.Page[domain.ProjectSummary], bool) {
	cached, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}

	e, ok := cached.(entry)
	if !ok || !c.now().Before(e.expires) {
		c.entries.Delete(key)

		return nil, false
	}

	return clonePage(e.page), true
}

// StoreProjects stores a search page under the key. A zero TTL stores nothing.
func (c *InMemoryCache) StoreProjects(key string, page *domain.Page[domain.ProjectSummary]) {
	if c.ttl <= 0 || page == nil {
		return
	}

	c.entries.Store(key, entry{page: clonePage(page), expires: c.now().Add(c.ttl)})
}

func clonePage(p *domain.Page[domain.ProjectSummary]) *domain.Page[domain.ProjectSummary] {
	cp := *p
	cp.Items = slices.Clone(p.Items)

	return &cp
}
