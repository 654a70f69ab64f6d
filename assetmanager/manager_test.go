package assetmanager

import (
	"sync"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/concurrent"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/refl"
)

type memPack struct {
	metas map[asset.Id]*asset.Meta
}

func newMemPack() *memPack { return &memPack{metas: make(map[asset.Id]*asset.Meta)} }

func (p *memPack) Name() string { return "mem" }

func (p *memPack) GetMeta(id asset.Id) (*asset.Meta, error) {
	m, ok := p.metas[id]
	if !ok {
		return nil, status.New(status.FailedFindFile, "no meta for %s", id)
	}
	return m, nil
}

func (p *memPack) ReadFile(path string) ([]byte, error) {
	return nil, status.New(status.FailedFindFile, "no file %s", path)
}

// stubLoader builds an Asset whose payload is its own id string, counting
// its calls and failing if any dependency is not already resident at load
// time.
type stubLoader struct {
	mu    sync.Mutex
	calls int
}

func (l *stubLoader) Load(req *LoadRequest) (*asset.Asset, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()

	for _, dep := range req.Meta.Deps {
		if ref, ok := req.Resolver.(*Manager).Find(dep); ok {
			ref.Release()
		} else {
			return nil, status.New(status.Error, "dependency %s not resident at load time", dep)
		}
	}

	return asset.NewAsset(req.Id, refl.Intern("stub"), req.Id.String()), nil
}

func newTestManager(t *testing.T) (*Manager, *concurrent.TaskManager) {
	t.Helper()
	tm, err := concurrent.NewTaskManager(2, 16)
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(tm), tm
}

func TestManagerLoadSimpleAsset(t *testing.T) {
	m, tm := newTestManager(t)
	defer tm.Shutdown()

	pack := newMemPack()
	id := asset.NewId("brick")
	pack.metas[id] = &asset.Meta{Class: refl.Intern("stub")}
	m.AddPack(pack)
	loader := &stubLoader{}
	m.AddLoader(refl.Intern("default"), loader)

	ref, err := m.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	defer ref.Release()

	if ref.Asset().Payload.(string) != "brick" {
		t.Fatalf("unexpected payload %v", ref.Asset().Payload)
	}

	again, ok := m.Find(id)
	if !ok {
		t.Fatal("expected asset to be resident after load")
	}
	again.Release()
}

func TestManagerLoadIsIdempotent(t *testing.T) {
	m, tm := newTestManager(t)
	defer tm.Shutdown()

	pack := newMemPack()
	id := asset.NewId("brick")
	pack.metas[id] = &asset.Meta{Class: refl.Intern("stub")}
	m.AddPack(pack)
	loader := &stubLoader{}
	m.AddLoader(refl.Intern("default"), loader)

	var wg sync.WaitGroup
	refs := make([]asset.Ref, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := m.Load(id)
			if err != nil {
				t.Error(err)
				return
			}
			refs[i] = ref
		}(i)
	}
	wg.Wait()

	for _, r := range refs {
		if r.Asset() != refs[0].Asset() {
			t.Fatal("concurrent loads must resolve to the same underlying asset")
		}
		r.Release()
	}

	if loader.calls != 1 {
		t.Fatalf("expected exactly 1 loader invocation, got %d", loader.calls)
	}
}

func TestManagerDependencyPrecondition(t *testing.T) {
	m, tm := newTestManager(t)
	defer tm.Shutdown()

	pack := newMemPack()
	base := asset.NewId("base")
	dependent := asset.NewId("dependent")
	pack.metas[base] = &asset.Meta{Class: refl.Intern("stub")}
	pack.metas[dependent] = &asset.Meta{Class: refl.Intern("stub"), Deps: []asset.Id{base}}
	m.AddPack(pack)
	m.AddLoader(refl.Intern("default"), &stubLoader{})

	ref, err := m.Load(dependent)
	if err != nil {
		t.Fatal(err)
	}
	defer ref.Release()

	baseRef, ok := m.Find(base)
	if !ok {
		t.Fatal("expected base dependency to be resident")
	}
	baseRef.Release()
}

func TestManagerGcEvictsOnlyUnreferenced(t *testing.T) {
	m, tm := newTestManager(t)
	defer tm.Shutdown()

	pack := newMemPack()
	a := asset.NewId("a")
	b := asset.NewId("b")
	pack.metas[a] = &asset.Meta{Class: refl.Intern("stub")}
	pack.metas[b] = &asset.Meta{Class: refl.Intern("stub")}
	m.AddPack(pack)
	m.AddLoader(refl.Intern("default"), &stubLoader{})

	refA, err := m.Load(a)
	if err != nil {
		t.Fatal(err)
	}
	refB, err := m.Load(b)
	if err != nil {
		t.Fatal(err)
	}
	refB.Release() // b has no external holder now

	evicted := m.Gc()
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := m.Find(b); ok {
		t.Fatal("b should have been evicted")
	}
	stillA, ok := m.Find(a)
	if !ok {
		t.Fatal("a should still be resident")
	}
	stillA.Release()
	refA.Release()
}

func TestManagerMissingMetaFails(t *testing.T) {
	m, tm := newTestManager(t)
	defer tm.Shutdown()
	m.AddPack(newMemPack())

	if _, err := m.Load(asset.NewId("ghost")); err == nil {
		t.Fatal("expected error loading an asset with no meta in any pack")
	}
}
