// Package resource holds the snapshot cache shared by the polling
// controller and its readers. A Cache is owned by one application instance;
// there is no package-level state.
package resource

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type Kind string

const (
	KindSession  Kind = "session"
	KindWorkflow Kind = "workflow"
)

type Key struct {
	Kind Kind
	ID   string
}

func SessionKey(id string) Key {
	return Key{Kind: KindSession, ID: strings.TrimSpace(id)}
}

func WorkflowKey(sessionID string) Key {
	return Key{Kind: KindWorkflow, ID: strings.TrimSpace(sessionID)}
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// Generation tags one fetch of a key. Generations increase monotonically per
// key for the lifetime of the Cache.
type Generation uint64

type entry struct {
	value     any
	gen       Generation
	stale     bool
	appliedAt time.Time
}

type Cache struct {
	mu       sync.Mutex
	store    *cache.Cache
	next     Generation
	issued   map[string]Generation
	applied  map[string]Generation
	retained map[string]struct{}
	now      func() time.Time
}

// New builds a cache whose entries expire after ttl without being re-applied.
// Retained keys never expire. A ttl <= 0 keeps entries until Forget or Flush.
func New(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Cache{
		store:    cache.New(ttl, cleanupInterval),
		issued:   map[string]Generation{},
		applied:  map[string]Generation{},
		retained: map[string]struct{}{},
		now:      time.Now,
	}
}

// Begin reserves the next generation for key. Call it when a fetch is
// initiated, not when it completes. Generations are unique across keys, so a
// key whose bookkeeping was pruned never reuses an older generation.
func (c *Cache) Begin(key Key) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.issued[key.String()] = c.next
	return c.next
}

// Apply stores value for key if gen is newer than the generation currently
// applied. It reports false for a stale completion, which is left untouched.
func (c *Cache) Apply(key Key, gen Generation, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := key.String()
	if gen == 0 || gen <= c.applied[name] || gen > c.issued[name] {
		return false
	}
	c.applied[name] = gen
	c.store.Set(name, entry{value: value, gen: gen, appliedAt: c.now()}, c.expiration(name))
	return true
}

// Retain pins keys so they never expire while they are in view. Keys retained
// by an earlier call fall back to the normal ttl, counted from now.
// Generation bookkeeping of keys that are neither cached nor retained is
// dropped.
func (c *Cache) Retain(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous := c.retained
	c.retained = make(map[string]struct{}, len(keys))
	for _, key := range keys {
		c.retained[key.String()] = struct{}{}
	}
	for name := range previous {
		if _, ok := c.retained[name]; !ok {
			c.resetExpiration(name)
		}
	}
	for name := range c.retained {
		c.resetExpiration(name)
	}
	c.prune()
}

// Invalidate marks the cached value as stale while keeping it readable, so
// readers keep the last known good snapshot until a refetch lands.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := key.String()
	raw, ok := c.store.Get(name)
	if !ok {
		return false
	}
	current := raw.(entry)
	current.stale = true
	c.store.Set(name, current, c.expiration(name))
	return true
}

// Stale reports whether key is missing or was invalidated since its last
// apply.
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store.Get(key.String())
	if !ok {
		return true
	}
	return raw.(entry).stale
}

// Lookup returns the applied value and its generation.
func (c *Cache) Lookup(key Key) (any, Generation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store.Get(key.String())
	if !ok {
		return nil, 0, false
	}
	current := raw.(entry)
	return current.value, current.gen, true
}

// AppliedAt returns when key was last applied.
func (c *Cache) AppliedAt(key Key) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store.Get(key.String())
	if !ok {
		return time.Time{}, false
	}
	return raw.(entry).appliedAt, true
}

// Forget drops the value for key. Generation bookkeeping of a retained key is
// kept so late completions of earlier fetches still lose against later ones.
func (c *Cache) Forget(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(key.String())
	c.prune()
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
	c.prune()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ItemCount()
}

// tracked reports how many keys carry generation bookkeeping.
func (c *Cache) tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issued)
}

func (c *Cache) expiration(name string) time.Duration {
	if _, ok := c.retained[name]; ok {
		return cache.NoExpiration
	}
	return cache.DefaultExpiration
}

func (c *Cache) resetExpiration(name string) {
	raw, ok := c.store.Get(name)
	if !ok {
		return
	}
	c.store.Set(name, raw, c.expiration(name))
}

func (c *Cache) prune() {
	for name := range c.issued {
		if _, ok := c.retained[name]; ok {
			continue
		}
		if _, ok := c.store.Get(name); ok {
			continue
		}
		delete(c.issued, name)
		delete(c.applied, name)
	}
}

// Get returns the applied value for key as T.
func Get[T any](c *Cache, key Key) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	value, _, ok := c.Lookup(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
