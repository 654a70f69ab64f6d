package concurrent

import (
	"sync"
	"sync/atomic"

	"github.com/ember-forge/pipeline/internal/status"
)

// Task is a unit of work scheduled on the worker pool. Tasks are coarse —
// one task is one load or one shader compile — and must run to completion
// or fail; they never suspend except by settling an AsyncState that chains
// further work (spec §5).
type Task func()

// TaskManager owns a small pool of worker goroutines pulling from one
// shared FIFO, grounded on the engine's JobSystem (engine/systems/job.go)
// but generalised to the content pipeline's AsyncState-driven work.
type TaskManager struct {
	tasks chan Task
	wg    sync.WaitGroup

	mu       sync.Mutex
	isDown   bool
	numWork  int
	pending  int64
}

// NewTaskManager starts numWorkers goroutines pulling from a FIFO of depth
// queueSize. numWorkers must be positive and queueSize non-negative.
func NewTaskManager(numWorkers, queueSize int) (*TaskManager, error) {
	if numWorkers <= 0 {
		return nil, status.New(status.InvalidParameter, "task manager requires at least 1 worker")
	}
	if queueSize < 0 {
		return nil, status.New(status.InvalidParameter, "task manager queue size must not be negative")
	}

	tm := &TaskManager{
		tasks:   make(chan Task, queueSize),
		numWork: numWorkers,
	}
	tm.start()
	return tm, nil
}

func (tm *TaskManager) start() {
	for i := 0; i < tm.numWork; i++ {
		tm.wg.Add(1)
		go func() {
			defer tm.wg.Done()
			for t := range tm.tasks {
				t()
				atomic.AddInt64(&tm.pending, -1)
			}
		}()
	}
}

// Submit enqueues a runnable. It fails with InvalidState once Shutdown has
// been called (spec §4.1).
func (tm *TaskManager) Submit(t Task) error {
	tm.mu.Lock()
	if tm.isDown {
		tm.mu.Unlock()
		return status.New(status.InvalidState, "task manager is shut down")
	}
	atomic.AddInt64(&tm.pending, 1)
	tm.mu.Unlock()

	tm.tasks <- t
	return nil
}

// SubmitAsync runs fn on the worker pool and settles the returned
// AsyncState with its result. If the manager is already shut down the
// async settles Failed immediately instead of being enqueued.
func SubmitAsync[T any](tm *TaskManager, fn func() (T, error)) *AsyncState[T] {
	a := New[T]()
	err := tm.Submit(func() {
		v, err := fn()
		if err != nil {
			a.SetFailed(err)
			return
		}
		a.SetResult(v)
	})
	if err != nil {
		a.SetFailed(err)
	}
	return a
}

// Shutdown is idempotent: it stops accepting submissions, drains the queue
// of already-submitted tasks and joins every worker.
func (tm *TaskManager) Shutdown() error {
	tm.mu.Lock()
	if tm.isDown {
		tm.mu.Unlock()
		return nil
	}
	tm.isDown = true
	tm.mu.Unlock()

	close(tm.tasks)
	tm.wg.Wait()
	return nil
}

func (tm *TaskManager) NumWorkers() int { return tm.numWork }

func (tm *TaskManager) NumPending() int64 { return atomic.LoadInt64(&tm.pending) }
