package asset

import "sync"

// controlBlock is the shared state behind a Ref/Weak pair, grounded on
// original_source/engine/core/weak_ref.hpp's weak_ref_ctrl: a mutex-guarded
// slot that is nulled out once the last strong owner releases it, rather
// than relying on GC finalizers to decide liveness. Go has no destructors,
// so where the source's RAII shared_ptr drop is implicit, a Ref.Release()
// call here is explicit — call sites that hold a Ref across a scope must
// defer Release() themselves.
type controlBlock struct {
	mu    sync.Mutex
	count int32
	value *Asset
}

func newControlBlock(a *Asset) *controlBlock {
	return &controlBlock{count: 1, value: a}
}

func (cb *controlBlock) retain() {
	cb.mu.Lock()
	cb.count++
	cb.mu.Unlock()
}

// release drops one strong owner. Once the count reaches zero the value is
// cleared so any Weak holders observe the asset as gone (spec invariant:
// weak eviction soundness — a weak reference never resurrects a dead
// asset).
func (cb *controlBlock) release() {
	cb.mu.Lock()
	cb.count--
	if cb.count <= 0 {
		cb.value = nil
	}
	cb.mu.Unlock()
}

// tryAcquire attempts to produce a new strong owner from a weak holder. It
// fails once the control block has been emptied by release.
func (cb *controlBlock) tryAcquire() (*Asset, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.value == nil {
		return nil, false
	}
	cb.count++
	return cb.value, true
}

// Ref is a strong, reference-counted handle to a live Asset. The cache
// (assetmanager.Manager) holds only Weak handles; Ref is what client code
// and in-flight loads hold to keep an asset alive.
type Ref struct {
	asset *Asset
	cb    *controlBlock
}

// NewRef wraps a freshly loaded asset in a strong reference with count 1.
func NewRef(a *Asset) Ref {
	return Ref{asset: a, cb: newControlBlock(a)}
}

func (r Ref) IsValid() bool { return r.cb != nil }

func (r Ref) Asset() *Asset { return r.asset }

// StrongCount reports the current number of strong owners sharing this
// control block. assetmanager.Manager.Gc uses this the way the source's
// resource_manager.cpp inspects refs_count(): a count of exactly 1 means
// only the manager's own cache-keepalive copy remains and the asset is
// safe to evict.
func (r Ref) StrongCount() int32 {
	if r.cb == nil {
		return 0
	}
	r.cb.mu.Lock()
	defer r.cb.mu.Unlock()
	return r.cb.count
}

// Clone returns a second strong owner sharing the same control block.
func (r Ref) Clone() Ref {
	if r.cb != nil {
		r.cb.retain()
	}
	return r
}

// Release drops this owner's share. Call exactly once per Ref value
// obtained from NewRef, Clone, or Weak.Upgrade.
func (r Ref) Release() {
	if r.cb != nil {
		r.cb.release()
	}
}

// Weak returns a non-owning handle that can later attempt to re-acquire a
// strong reference via Upgrade.
func (r Ref) Weak() Weak {
	return Weak{cb: r.cb}
}

// Weak is a non-owning handle to an Asset that may have already been
// evicted. This is what assetmanager.Manager's cache stores, so a cached
// entry never by itself keeps an asset resident (spec §4.5: the cache must
// not be the reason an asset stays loaded).
type Weak struct {
	cb *controlBlock
}

func (w Weak) IsValid() bool { return w.cb != nil }

// Upgrade attempts to obtain a strong Ref. Returns false once every strong
// owner has released.
func (w Weak) Upgrade() (Ref, bool) {
	if w.cb == nil {
		return Ref{}, false
	}
	a, ok := w.cb.tryAcquire()
	if !ok {
		return Ref{}, false
	}
	return Ref{asset: a, cb: w.cb}, true
}
