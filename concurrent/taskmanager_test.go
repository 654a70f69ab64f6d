package concurrent

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ember-forge/pipeline/internal/status"
)

func TestTaskManagerRunsSubmittedWork(t *testing.T) {
	tm, err := NewTaskManager(4, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Shutdown()

	var count int64
	const n = 100
	for i := 0; i < n; i++ {
		if err := tm.Submit(func() { atomic.AddInt64(&count, 1) }); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&count) != n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := atomic.LoadInt64(&count); got != n {
		t.Fatalf("expected %d tasks run, got %d", n, got)
	}
}

func TestTaskManagerRejectsAfterShutdown(t *testing.T) {
	tm, err := NewTaskManager(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := tm.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := tm.Shutdown(); err != nil {
		t.Fatalf("shutdown must be idempotent, got %v", err)
	}
	err = tm.Submit(func() {})
	if !status.Is(err, status.InvalidState) {
		t.Fatalf("expected InvalidState after shutdown, got %v", err)
	}
}

func TestTaskManagerInvalidConfig(t *testing.T) {
	if _, err := NewTaskManager(0, 1); !status.Is(err, status.InvalidParameter) {
		t.Fatalf("expected InvalidParameter for 0 workers, got %v", err)
	}
	if _, err := NewTaskManager(1, -1); !status.Is(err, status.InvalidParameter) {
		t.Fatalf("expected InvalidParameter for negative queue, got %v", err)
	}
}

func TestSubmitAsyncSettlesAfterShutdown(t *testing.T) {
	tm, _ := NewTaskManager(1, 1)
	tm.Shutdown()
	a := SubmitAsync(tm, func() (int, error) { return 1, nil })
	if !a.Failed() {
		t.Fatal("expected SubmitAsync to settle Failed when manager is down")
	}
}
