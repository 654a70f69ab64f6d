package shader

import (
	"sync"

	"github.com/ember-forge/pipeline/concurrent"
	"github.com/ember-forge/pipeline/internal/status"
)

// CompileStatus is a ProgramEntry's lifecycle stage (spec §4.8 phase 3).
type CompileStatus uint8

const (
	CompileInProgress CompileStatus = iota
	CompileReady
	CompileFailed
)

// ProgramEntry holds one permutation's compile result, guarded by the
// owning Cache's per-shader rw-lock: many concurrent readers (runtime
// draws checking Ready), a single writer (the compile completion
// callback).
type ProgramEntry struct {
	Status  CompileStatus
	Program interface{} // the Compiler's bytecode ([]byte) once Ready
	Async   *concurrent.AsyncState[interface{}]
	perm    *ShaderPermutation
}

// Cache is the two-level shader cache named in spec §4.8 phase 3:
// platform -> permutation -> ProgramEntry. Each shader (identified by the
// Reflection it was built from) owns one Cache instance.
type Cache struct {
	mu       sync.RWMutex
	byHash   map[string]map[uint64][]*ProgramEntry // platform -> hash -> bucket (collision chain)
	compiler map[string]Compiler
}

func NewCache() *Cache {
	return &Cache{
		byHash:   make(map[string]map[uint64][]*ProgramEntry),
		compiler: make(map[string]Compiler),
	}
}

// RegisterCompiler wires a platform-specific Compiler adapter; GetOrCompile
// fails with "no compiler" for a platform that was never registered.
func (c *Cache) RegisterCompiler(comp Compiler) {
	c.mu.Lock()
	c.compiler[comp.Platform()] = comp
	c.mu.Unlock()
}

// lookupLocked finds an exact-equal entry in the hash bucket, distinguishing
// genuine cache hits from hash collisions (spec invariant 5: ≤0.1%
// collision rate on 1e4 distinct permutations — collisions are expected to
// be rare, not absent, hence an equality check rather than a bare hash
// lookup).
func lookupLocked(bucket []*ProgramEntry, perm *ShaderPermutation) *ProgramEntry {
	for _, e := range bucket {
		if e.perm.Equal(perm) {
			return e
		}
	}
	return nil
}

// GetOrCompile is phases 3+4 combined: a cache hit returns the existing
// entry's async immediately (concurrent requesters of the same permutation
// join the in-flight async, spec §4.8 phase 4 step 4); a miss allocates an
// InProgress entry and submits the compile to tm, publishing the result on
// completion.
func (c *Cache) GetOrCompile(tm *concurrent.TaskManager, r *Reflection, perm *ShaderPermutation, platform string) *ProgramEntry {
	hash := perm.Hash()

	c.mu.Lock()
	platformMap, ok := c.byHash[platform]
	if !ok {
		platformMap = make(map[uint64][]*ProgramEntry)
		c.byHash[platform] = platformMap
	}
	if entry := lookupLocked(platformMap[hash], perm); entry != nil {
		c.mu.Unlock()
		return entry
	}

	compiler := c.compiler[platform]
	entry := &ProgramEntry{Status: CompileInProgress, perm: perm}
	entry.Async = concurrent.New[interface{}]()
	platformMap[hash] = append(platformMap[hash], entry)
	c.mu.Unlock()

	if compiler == nil {
		c.publish(entry, nil, status.New(status.InvalidState, "no shader compiler registered for platform %q", platform))
		return entry
	}

	source, err := SynthesizeSource(r, perm, platform)
	if err != nil {
		c.publish(entry, nil, err)
		return entry
	}

	submitErr := tm.Submit(func() {
		bytecode, compileErr := compiler.Compile(&CompileRequest{Platform: platform, Permutation: perm, Source: source})
		if compileErr != nil {
			c.publish(entry, nil, compileErr)
			return
		}
		c.publish(entry, bytecode, nil)
	})
	if submitErr != nil {
		c.publish(entry, nil, submitErr)
	}

	return entry
}

// publish atomically transitions an in-progress entry to Ready or Failed
// under the cache's write lock, then settles its async so joined waiters
// observe the same outcome.
func (c *Cache) publish(entry *ProgramEntry, program interface{}, err error) {
	c.mu.Lock()
	if err != nil {
		entry.Status = CompileFailed
	} else {
		entry.Status = CompileReady
		entry.Program = program
	}
	c.mu.Unlock()

	if err != nil {
		entry.Async.SetFailed(err)
	} else {
		entry.Async.SetResult(program)
	}
}
