package shader

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ember-forge/pipeline/concurrent"
)

type stubCompiler struct {
	platform string
	calls    int32
}

func (s *stubCompiler) Platform() string { return s.platform }

func (s *stubCompiler) Compile(req *CompileRequest) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	return []byte(req.Source), nil
}

func TestCacheGetOrCompileDedupsConcurrentRequesters(t *testing.T) {
	r := buildTestReflection(t)
	perm, err := BuildPermutation(r, "forward", "opaque", nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	compiler := &stubCompiler{platform: "vulkan"}
	cache.RegisterCompiler(compiler)

	tm, err := concurrent.NewTaskManager(4, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Shutdown()

	const requesters = 16
	entries := make([]*ProgramEntry, requesters)
	var wg sync.WaitGroup
	wg.Add(requesters)
	for i := 0; i < requesters; i++ {
		go func(i int) {
			defer wg.Done()
			entries[i] = cache.GetOrCompile(tm, r, perm, "vulkan")
		}(i)
	}
	wg.Wait()

	first := entries[0]
	for _, e := range entries[1:] {
		if e != first {
			t.Fatal("expected every concurrent requester to join the same ProgramEntry")
		}
	}

	first.Async.WaitCompleted()
	if !first.Async.OK() {
		t.Fatalf("expected compile to succeed, got err %v", first.Async.Err())
	}
	if first.Status != CompileReady {
		t.Fatalf("expected CompileReady, got %v", first.Status)
	}
	if atomic.LoadInt32(&compiler.calls) != 1 {
		t.Fatalf("expected exactly 1 compile invocation, got %d", compiler.calls)
	}
}

func TestCacheGetOrCompileFailsWithoutCompiler(t *testing.T) {
	r := buildTestReflection(t)
	perm, err := BuildPermutation(r, "forward", "opaque", nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	tm, err := concurrent.NewTaskManager(1, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Shutdown()

	entry := cache.GetOrCompile(tm, r, perm, "metal")
	if entry.Status != CompileFailed {
		t.Fatalf("expected CompileFailed for an unregistered platform, got %v", entry.Status)
	}
	entry.Async.WaitCompleted()
	if entry.Async.OK() {
		t.Fatal("expected an error result")
	}
}

func TestCacheGetOrCompileDistinguishesPermutations(t *testing.T) {
	r := buildTestReflection(t)
	base, err := BuildPermutation(r, "forward", "opaque", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	overridden, err := BuildPermutation(r, "forward", "opaque", map[string]string{"USE_NORMAL_MAP": "on"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	compiler := &stubCompiler{platform: "vulkan"}
	cache.RegisterCompiler(compiler)
	tm, err := concurrent.NewTaskManager(2, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Shutdown()

	e1 := cache.GetOrCompile(tm, r, base, "vulkan")
	e2 := cache.GetOrCompile(tm, r, overridden, "vulkan")
	e1.Async.WaitCompleted()
	e2.Async.WaitCompleted()
	if !e1.Async.OK() || !e2.Async.OK() {
		t.Fatal("expected both compiles to succeed")
	}
	if e1 == e2 {
		t.Fatal("expected distinct permutations to get distinct cache entries")
	}
}
