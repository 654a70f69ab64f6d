// Package concurrent is the task manager / future / callback-stream
// substrate every asynchronous operation in the content pipeline is built
// on (spec §4.1), grounded on the engine's worker-pool job system and on
// the wmoge lineage's Task/AsyncState dependency-join model.
package concurrent

import (
	"sync"

	"github.com/ember-forge/pipeline/internal/status"
)

// Phase is the monotonic state of an AsyncState: InProcess -> {Ok, Failed}.
type Phase int32

const (
	InProcess Phase = iota
	Ok
	Failed
)

// ErrDependencyFailed is the failure cause set on a dependent AsyncState
// when any of its joined dependencies failed (spec §4.1 join semantics).
var ErrDependencyFailed = status.New(status.Error, "dependency failed")

// Handle is the type-erased view of an AsyncState used to build dependency
// graphs between futures of different result types (spec §4.1: "a
// dependent AsyncState registers itself with each of its dependencies").
type Handle interface {
	Settled() bool
	OK() bool
	Failed() bool
	Err() error
	// AddOnCompletion runs cb immediately if already settled (on the
	// caller's goroutine), otherwise defers it to run on the settling
	// goroutine — never under the AsyncState's internal lock.
	AddOnCompletion(cb func(ok bool))
	WaitCompleted()
}

// AsyncState is a one-shot, settle-once future. It is the Go analogue of
// the engine's Async<T>/AsyncState<T>: states only ever move forward
// (InProcess -> Ok or InProcess -> Failed), callbacks registered before
// settlement run on whichever goroutine calls SetResult/SetFailed,
// callbacks registered after settlement run synchronously on the caller.
type AsyncState[T any] struct {
	mu        sync.Mutex
	phase     Phase
	value     T
	err       error
	done      chan struct{}
	callbacks []func(ok bool)
}

// New creates an unsettled AsyncState.
func New[T any]() *AsyncState[T] {
	return &AsyncState[T]{done: make(chan struct{})}
}

// Completed returns an AsyncState already settled with v, used by the asset
// manager when a cache hit can be resolved without a task (spec §4.5 step 1).
func Completed[T any](v T) *AsyncState[T] {
	a := New[T]()
	a.SetResult(v)
	return a
}

// CompletedFailed returns an AsyncState already settled as Failed.
func CompletedFailed[T any](err error) *AsyncState[T] {
	a := New[T]()
	a.SetFailed(err)
	return a
}

func (a *AsyncState[T]) Settled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase != InProcess
}

func (a *AsyncState[T]) OK() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase == Ok
}

func (a *AsyncState[T]) Failed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase == Failed
}

func (a *AsyncState[T]) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Result returns the settled value. It is only meaningful after OK() is
// true; callers racing ahead of settlement get the zero value.
func (a *AsyncState[T]) Result() T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// SetResult settles the async as Ok exactly once. Subsequent calls (to
// SetResult or SetFailed) are no-ops, preserving monotonicity (invariant 9).
func (a *AsyncState[T]) SetResult(v T) {
	a.settle(Ok, v, nil)
}

// SetFailed settles the async as Failed exactly once.
func (a *AsyncState[T]) SetFailed(err error) {
	var zero T
	a.settle(Failed, zero, err)
}

func (a *AsyncState[T]) settle(phase Phase, v T, err error) {
	a.mu.Lock()
	if a.phase != InProcess {
		a.mu.Unlock()
		return
	}
	a.phase = phase
	a.value = v
	a.err = err
	cbs := a.callbacks
	a.callbacks = nil
	close(a.done)
	a.mu.Unlock()

	ok := phase == Ok
	for _, cb := range cbs {
		cb(ok)
	}
}

// AddOnCompletion registers cb to observe the settlement. Per spec §4.1:
// "callback runs immediately if already settled, otherwise at settle time
// on the settling thread".
func (a *AsyncState[T]) AddOnCompletion(cb func(ok bool)) {
	a.mu.Lock()
	if a.phase != InProcess {
		ok := a.phase == Ok
		a.mu.Unlock()
		cb(ok)
		return
	}
	a.callbacks = append(a.callbacks, cb)
	a.mu.Unlock()
}

// WaitCompleted blocks until the async settles. Forbidden on worker-pool
// goroutines (documented, not enforced — spec §5) to avoid self-deadlock.
func (a *AsyncState[T]) WaitCompleted() {
	<-a.done
}

// Notify is the callback a dependent AsyncState registers on each of its
// dependencies via AddOnCompletion; invoker identifies which dependency
// settled, for diagnostics only.
func (a *AsyncState[T]) Notify(ok bool, invoker Handle) {
	if !ok {
		a.SetFailed(ErrDependencyFailed)
	}
}

// Join returns a Handle that settles once every dependency has settled: Ok
// if all succeeded, Failed (ErrDependencyFailed) if any failed. This gives
// the implicit join semantics spec §4.1 describes for a loader's recursive
// dependency resolution (spec §4.5 step 4).
func Join(deps ...Handle) *AsyncState[struct{}] {
	j := New[struct{}]()
	if len(deps) == 0 {
		j.SetResult(struct{}{})
		return j
	}

	var mu sync.Mutex
	remaining := len(deps)
	anyFailed := false

	for _, d := range deps {
		d.AddOnCompletion(func(ok bool) {
			mu.Lock()
			if !ok {
				anyFailed = true
			}
			remaining--
			done := remaining == 0
			failed := anyFailed
			mu.Unlock()

			if done {
				if failed {
					j.SetFailed(ErrDependencyFailed)
				} else {
					j.SetResult(struct{}{})
				}
			}
		})
	}
	return j
}
