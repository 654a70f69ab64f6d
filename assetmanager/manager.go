package assetmanager

import (
	"sync"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/concurrent"
	"github.com/ember-forge/pipeline/corelog"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/refl"
)

type loadState struct {
	async *concurrent.AsyncState[struct{}]
}

// Manager resolves asset ids to live Assets, caching weakly and deduping
// concurrent loads of the same id (spec §4.5), grounded on
// original_source/engine/resource/resource_manager.cpp.
//
// Go has no destructors, so the source's "cache holds a WeakRef; the only
// strong owner is whoever holds the AsyncOp's stored result" trick doesn't
// translate directly: nothing here automatically drops a strong reference
// when the last external clone goes out of scope. Instead the manager
// keeps one "anchor" strong reference per resident asset in held, minted
// at load completion; Gc evicts an id only when that anchor's strong count
// is back down to 1, meaning no caller-held clone survives it. Every
// Load/Find/Resolve call hands the caller a fresh Clone of the anchor, and
// callers are responsible for calling Ref.Release() when done.
type Manager struct {
	mu      sync.Mutex
	packs   []Pack
	loaders map[refl.Strid]Loader
	held    map[asset.Id]asset.Ref
	cache   map[asset.Id]asset.Weak
	loading map[asset.Id]*loadState
	tasks   *concurrent.TaskManager
}

func NewManager(tasks *concurrent.TaskManager) *Manager {
	return &Manager{
		loaders: make(map[refl.Strid]Loader),
		held:    make(map[asset.Id]asset.Ref),
		cache:   make(map[asset.Id]asset.Weak),
		loading: make(map[asset.Id]*loadState),
		tasks:   tasks,
	}
}

func (m *Manager) AddPack(p Pack) {
	m.mu.Lock()
	m.packs = append(m.packs, p)
	m.mu.Unlock()
}

func (m *Manager) AddLoader(tag refl.Strid, l Loader) {
	m.mu.Lock()
	m.loaders[tag] = l
	m.mu.Unlock()
}

// Find returns a fresh strong reference to an already-resident asset, if
// any. The caller owns the returned Ref.
func (m *Manager) Find(id asset.Id) (asset.Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireHeldLocked(id)
}

func (m *Manager) acquireHeldLocked(id asset.Id) (asset.Ref, bool) {
	held, ok := m.held[id]
	if !ok {
		return asset.Ref{}, false
	}
	return held.Clone(), true
}

// LoadAsync drives spec §4.5's resolution algorithm: cache hit returns
// immediately settled; an in-flight load returns the same Handle every
// concurrent caller attaches to; otherwise metadata is resolved, the
// dependency set is recursively loaded and joined, and a task is submitted
// to run once every dependency is ready. The returned Handle only signals
// readiness — callers retrieve the asset itself via Load or Find.
func (m *Manager) LoadAsync(id asset.Id) concurrent.Handle {
	m.mu.Lock()

	if ref, ok := m.acquireHeldLocked(id); ok {
		ref.Release()
		m.mu.Unlock()
		return concurrent.Completed(struct{}{})
	}

	if ls, ok := m.loading[id]; ok {
		m.mu.Unlock()
		return ls.async
	}

	meta, pack, err := m.findMetaLocked(id)
	if err != nil {
		m.mu.Unlock()
		corelog.Error("asset meta not found: %s: %v", id.String(), err)
		return concurrent.CompletedFailed[struct{}](err)
	}

	async := concurrent.New[struct{}]()
	m.loading[id] = &loadState{async: async}
	m.mu.Unlock()

	deps := make([]concurrent.Handle, 0, len(meta.Deps))
	for _, dep := range meta.Deps {
		deps = append(deps, m.LoadAsync(dep))
	}
	join := concurrent.Join(deps...)

	submitErr := m.tasks.Submit(func() {
		join.WaitCompleted()
		if join.Failed() {
			m.mu.Lock()
			delete(m.loading, id)
			m.mu.Unlock()
			async.SetFailed(status.Wrap(status.Error, join.Err(), "dependency load failed for %s", id))
			return
		}

		a, loadErr := m.runLoader(id, meta, pack)

		m.mu.Lock()
		delete(m.loading, id)
		if loadErr != nil {
			m.mu.Unlock()
			corelog.Error("asset load failed: %s: %v", id.String(), loadErr)
			async.SetFailed(loadErr)
			return
		}
		ref := asset.NewRef(a)
		m.held[id] = ref
		m.cache[id] = ref.Weak()
		m.mu.Unlock()
		async.SetResult(struct{}{})
	})
	if submitErr != nil {
		m.mu.Lock()
		delete(m.loading, id)
		m.mu.Unlock()
		async.SetFailed(submitErr)
	}

	return async
}

// Load is the synchronous form: resolves (loading if necessary) and
// returns a strong reference the caller owns.
func (m *Manager) Load(id asset.Id) (asset.Ref, error) {
	if ref, ok := m.Find(id); ok {
		return ref, nil
	}
	h := m.LoadAsync(id)
	h.WaitCompleted()
	if !h.OK() {
		return asset.Ref{}, h.Err()
	}
	ref, ok := m.Find(id)
	if !ok {
		return asset.Ref{}, status.New(status.NoAsset, "asset %s vanished immediately after load", id)
	}
	return ref, nil
}

// Resolve implements asset.Resolver, letting AssetRef[T] dereference
// through this manager without an import cycle.
func (m *Manager) Resolve(id asset.Id) (asset.Ref, error) {
	return m.Load(id)
}

func (m *Manager) findMetaLocked(id asset.Id) (*asset.Meta, Pack, error) {
	for _, p := range m.packs {
		meta, err := p.GetMeta(id)
		if err == nil {
			return meta, p, nil
		}
	}
	return nil, nil, status.New(status.NoAsset, "no meta found for asset %s in any pack", id)
}

func (m *Manager) resolveLoader(meta *asset.Meta) (Loader, error) {
	tag := meta.Loader
	if !tag.IsValid() {
		tag = refl.Intern("default")
	}
	l, ok := m.loaders[tag]
	if !ok {
		return nil, status.New(status.NoClass, "no loader registered for %s", tag)
	}
	return l, nil
}

func (m *Manager) runLoader(id asset.Id, meta *asset.Meta, pack Pack) (*asset.Asset, error) {
	loader, err := m.resolveLoader(meta)
	if err != nil {
		return nil, err
	}
	return loader.Load(&LoadRequest{Id: id, Meta: meta, Pack: pack, Resolver: m})
}

// Gc evicts every resident asset whose anchor strong reference has no
// surviving external clone (spec invariant 3).
func (m *Manager) Gc() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, ref := range m.held {
		if ref.StrongCount() == 1 {
			ref.Release()
			delete(m.held, id)
			delete(m.cache, id)
			evicted++
		}
	}
	corelog.Debug("asset gc evicted %d", evicted)
	return evicted
}

// Clear evicts every resident asset regardless of external references
// (spec §4.5's clear()). It does not reclaim memory still referenced by
// client-held clones.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ref := range m.held {
		ref.Release()
		delete(m.held, id)
	}
	m.cache = make(map[asset.Id]asset.Weak)
}
