package util

import (
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
)

const defaultUserRoleCacheSize = 1000

// roleLRU maps userID -> roleID. simplelru is not safe for concurrent use.
type roleLRU struct {
	mu       sync.Mutex
	lru      *simplelru.LRU
	capacity int
}

var roleCache *roleLRU

// InitUserRoleCache initializes the LRU cache with given capacity.
// If capacity <= 0, a default of 1000 is used.
func InitUserRoleCache(capacity int) {
	if capacity <= 0 {
		capacity = defaultUserRoleCacheSize
	}
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(capacity, onEvict)
	if err != nil {
		// only reachable with a non-positive size
		roleCache = nil
		return
	}
	roleCache = &roleLRU{lru: lru, capacity: capacity}
}

// DisableUserRoleCache turns the cache off; Get always misses.
func DisableUserRoleCache() {
	roleCache = nil
}

// UserRoleCacheGet returns the role and true if present in cache.
func UserRoleCacheGet(userID uint) (uint32, bool) {
	c := roleCache
	if c == nil {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.lru.Get(userID); ok {
		roleID, ok := v.(uint32)
		return roleID, ok
	}
	return 0, false
}

// UserRoleCacheSet sets the role for a userID in the cache.
func UserRoleCacheSet(userID uint, roleID uint32) {
	c := roleCache
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.lru.Add(userID, roleID)
}

// UserRoleCacheDelete drops userID from the cache.
func UserRoleCacheDelete(userID uint) {
	c := roleCache
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(userID)
}
