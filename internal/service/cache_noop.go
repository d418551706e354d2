package service

// noopCache satisfies CacheService without storing anything. It backs the
// disabled and "none" configurations, so every access check reaches the
// repository.
type noopCache struct{}

// NewNoopCache creates the cache used when verdict caching is turned off.
func NewNoopCache() CacheService {
	return &noopCache{}
}

func (c *noopCache) Get(key string) (interface{}, bool) {
	return nil, false
}

func (c *noopCache) Set(key string, value interface{}) {
	// No-op
}

func (c *noopCache) Delete(key string) {
	// No-op
}

func (c *noopCache) Clear() {
	// No-op
}
