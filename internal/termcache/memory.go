package termcache

import (
	"context"
	"sync"

	"github.com/medresolve/medkb-go/internal/apptype"
)

// MemoryCache is the default session-scoped definition cache. Entries are
// never evicted; the cache lives and dies with one processing session.
type MemoryCache struct {
	mu   sync.RWMutex
	defs map[string][]apptype.Definition
}

// NewMemoryCache builds an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{defs: make(map[string][]apptype.Definition)}
}

func (c *MemoryCache) GetDefinitions(_ context.Context, cui string) ([]apptype.Definition, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	defs, ok := c.defs[cui]
	if !ok {
		return nil, false, nil
	}
	out := make([]apptype.Definition, len(defs))
	copy(out, defs)
	return out, true, nil
}

func (c *MemoryCache) PutDefinitions(_ context.Context, cui string, defs []apptype.Definition) error {
	stored := make([]apptype.Definition, len(defs))
	copy(stored, defs)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[cui] = stored
	return nil
}
