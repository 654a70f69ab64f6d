// Package gpucache implements the GPU resource caches of spec §4.9: thin,
// non-creating `Descriptor -> Weak<Handle>` maps guarded by a short-held
// mutex. Grounded on original_source/engine/gfx/gfx_pipeline_cache.{hpp,cpp}
// for the get/add-only shape (three sibling caches, one mutex apiece, no
// creation logic inside the cache) and on gogpu-gg's
// backend/native/pipeline_cache_core.go for the idiomatic-Go rendering —
// a plain map keyed by a structural descriptor instead of a hand-rolled
// flat_map, with creation left entirely to the caller.
package gpucache

import "sync"

// Cache is a structural-descriptor-keyed cache of weakly-held GPU handles,
// generic over the descriptor type D (must be comparable so it can key a
// Go map directly) and the handle type H it hands back.
//
// Go has no spinlock in the standard library; sync.Mutex already spins
// briefly in the runtime before parking a goroutine, which is the
// behavior spec §5 asks for ("spin mutex: short critical sections, finite
// work") without reaching for an external spinlock package no example
// repo imports.
type Cache[D comparable, H any] struct {
	mu sync.Mutex
	m  map[D]Weak[H]
}

// NewCache constructs an empty cache for one descriptor/handle pair.
func NewCache[D comparable, H any]() *Cache[D, H] {
	return &Cache[D, H]{m: make(map[D]Weak[H])}
}

// Get looks up desc and attempts to upgrade its weak entry to a Strong
// owner. A miss — absent entry or an entry whose last strong owner has
// already released — reports ok=false; the cache never creates on a miss,
// per spec §4.9: "callers handle miss -> create -> insert themselves."
func (c *Cache[D, H]) Get(desc D) (Strong[H], bool) {
	c.mu.Lock()
	weak, found := c.m[desc]
	c.mu.Unlock()
	if !found {
		return Strong[H]{}, false
	}
	return weak.Upgrade()
}

// Add inserts (or overwrites) desc's entry with handle's weak reference.
// The caller retains its own Strong and is responsible for releasing it;
// the cache never extends a handle's lifetime.
func (c *Cache[D, H]) Add(desc D, handle Strong[H]) {
	c.mu.Lock()
	c.m[desc] = handle.Weak()
	c.mu.Unlock()
}

// Evict drops desc's entry outright, used by GetOrCreate-style callers
// that observe an Upgrade failure and want to stop paying for a dead
// lookup before inserting the freshly created replacement.
func (c *Cache[D, H]) Evict(desc D) {
	c.mu.Lock()
	delete(c.m, desc)
	c.mu.Unlock()
}

// Len reports the number of entries, live or stale, currently tracked.
// Useful for tests and diagnostics; not part of the get/add contract.
func (c *Cache[D, H]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
