// Package authcache holds a small read-through cache of access decisions,
// keyed by (user, property). It sits in front of the authorization engine's
// read path only; every grant write invalidates the affected pair before the
// write is acknowledged, so mutation paths never see stale decisions.
package authcache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/models"
)

type key struct {
	userID     uuid.UUID
	propertyID uuid.UUID
}

// Decision is the cached outcome of a grant lookup. Found=false caches a
// confirmed miss so repeated probes by unauthorized users stay cheap.
type Decision struct {
	Found       bool
	Role        models.Role
	Permissions map[models.Permission]bool
}

type entry struct {
	decision  Decision
	expiresAt time.Time
}

type Cache struct {
	mu         sync.Mutex
	entries    map[key]entry
	maxEntries int
	ttl        time.Duration
}

func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{
		entries:    make(map[key]entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (c *Cache) Get(userID, propertyID uuid.UUID) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key{userID, propertyID}]
	if !ok {
		return Decision{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key{userID, propertyID})
		return Decision{}, false
	}
	return e.decision, true
}

func (c *Cache) Set(userID, propertyID uuid.UUID, d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key{userID, propertyID}] = entry{decision: d, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops the cached decision for one (user, property) pair.
func (c *Cache) Invalidate(userID, propertyID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key{userID, propertyID})
}

// InvalidateProperty drops every cached decision for a property; used when a
// write affects users the caller cannot enumerate (cascade deletes).
func (c *Cache) InvalidateProperty(propertyID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.propertyID == propertyID {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked clears expired entries first; if the cache is still full it
// drops arbitrary entries until a quarter of the capacity is free. Callers
// hold c.mu.
func (c *Cache) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	target := c.maxEntries - c.maxEntries/4
	for k := range c.entries {
		if len(c.entries) < target {
			break
		}
		delete(c.entries, k)
	}
}
