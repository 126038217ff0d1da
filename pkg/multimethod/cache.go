package multimethod

import "sync"

// resolutionCache memoizes resolved calls by type-tuple key. It is kept
// apart from the registered signatures and is cleared whenever they change.
// Every clear starts a new generation; a resolution computed against an
// older generation is never stored.
type resolutionCache struct {
	mu         sync.RWMutex
	entries    map[string]*Method
	generation uint64
	disabled   bool
}

func newResolutionCache(disabled bool) *resolutionCache {
	return &resolutionCache{entries: make(map[string]*Method), disabled: disabled}
}

func (c *resolutionCache) load(key string) (*Method, bool) {
	if c.disabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

// store records m under key if the cache is still at generation gen.
func (c *resolutionCache) store(gen uint64, key string, m *Method) bool {
	if c.disabled {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.entries[key] = m
	return true
}

func (c *resolutionCache) current() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *resolutionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]*Method)
}

func (c *resolutionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
