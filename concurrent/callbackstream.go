package concurrent

import "sync"

// CallbackStream is a multiple-producer/single-consumer command queue tied
// to one designated consumer goroutine (typically the render thread),
// grounded on the wmoge lineage's callback_stream.hpp. Any goroutine may
// Push; only the consumer goroutine should call Consume/DrainAvailable.
//
// Design note: the source's Push executes inline when the caller already
// is the consumer thread. Go has no portable way to identify "the calling
// goroutine is the one running the consumer loop" without an explicit
// handshake, so this port always enqueues from Push and relies on the
// consumer loop itself calling RunInline for work it originates — see
// DESIGN.md's concurrent (C1) entry.
type CallbackStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

func NewCallbackStream() *CallbackStream {
	cs := &CallbackStream{}
	cs.cond = sync.NewCond(&cs.mu)
	return cs
}

// Push enqueues f for execution on the consumer thread.
func (cs *CallbackStream) Push(f func()) {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return
	}
	cs.queue = append(cs.queue, f)
	cs.mu.Unlock()
	cs.cond.Broadcast()
}

// RunInline executes f immediately. Only the consumer goroutine should
// call this, for work it originates itself (the in-process equivalent of
// "push executes inline if the caller is the consumer").
func (cs *CallbackStream) RunInline(f func()) {
	f()
}

// Consume blocks until one callback is available (or the stream is
// closed), runs it, and reports whether it did.
func (cs *CallbackStream) Consume() bool {
	cs.mu.Lock()
	for len(cs.queue) == 0 && !cs.closed {
		cs.cond.Wait()
	}
	if len(cs.queue) == 0 {
		cs.mu.Unlock()
		return false
	}
	f := cs.queue[0]
	cs.queue = cs.queue[1:]
	cs.mu.Unlock()
	cs.cond.Broadcast()

	f()
	return true
}

// DrainAvailable runs every callback queued at the moment of the call,
// without blocking for more — the shape a per-frame pump on the render
// thread uses.
func (cs *CallbackStream) DrainAvailable() int {
	cs.mu.Lock()
	batch := cs.queue
	cs.queue = nil
	cs.mu.Unlock()
	cs.cond.Broadcast()

	for _, f := range batch {
		f()
	}
	return len(batch)
}

// Wait blocks until the queue is observed empty at least once.
func (cs *CallbackStream) Wait() {
	cs.mu.Lock()
	for len(cs.queue) > 0 && !cs.closed {
		cs.cond.Wait()
	}
	cs.mu.Unlock()
}

// PushAndWait enqueues f and blocks the calling (producer) goroutine until
// f has run on the consumer thread — a synchronous render-thread fence.
func (cs *CallbackStream) PushAndWait(f func()) {
	done := make(chan struct{})
	cs.Push(func() {
		f()
		close(done)
	})
	<-done
}

// Close marks the stream closed; any goroutine blocked in Consume/Wait
// unblocks. Later Push calls are ignored; callbacks queued before Close
// still run on subsequent Consume/DrainAvailable calls.
func (cs *CallbackStream) Close() {
	cs.mu.Lock()
	cs.closed = true
	cs.mu.Unlock()
	cs.cond.Broadcast()
}
