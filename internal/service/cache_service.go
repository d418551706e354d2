package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/config"
)

// CacheService provides caching for access-check results
type CacheService interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Clear()
}

// memoryCache is an in-process cache. NOT stateless - use only for single
// instance deployments; multiple replicas need the redis implementation.
type memoryCache struct {
	lru     *expirable.LRU[string, interface{}]
	enabled bool
}

// NewMemoryCache creates the in-process cache: size-capped LRU with
// per-entry TTL, no cleanup goroutine to manage.
func NewMemoryCache(cfg *config.CacheConfig) CacheService {
	size := cfg.MaxSize
	if size <= 0 {
		size = 10000
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	return &memoryCache{
		lru:     expirable.NewLRU[string, interface{}](size, nil, ttl),
		enabled: cfg.Enabled,
	}
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *memoryCache) Set(key string, value interface{}) {
	if !c.enabled {
		return
	}
	c.lru.Add(key, value)
}

func (c *memoryCache) Delete(key string) {
	if !c.enabled {
		return
	}
	c.lru.Remove(key)
}

func (c *memoryCache) Clear() {
	c.lru.Purge()
}

// GenerateCacheKey generates a cache key for an access check. The checksum
// identifies the attribute map, so different attribute sets cache separately.
func GenerateCacheKey(tenantID, permissionID uuid.UUID, checksum string) string {
	return fmt.Sprintf("perm:%s:%s:%s", tenantID, permissionID, checksum)
}
