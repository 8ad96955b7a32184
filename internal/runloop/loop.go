// Package runloop serializes editor work onto one goroutine.
//
// Editor state is only ever touched from that goroutine. Asynchronous work
// (media probing, frame decoding, timers) runs elsewhere and hands its result
// back through a Dispatcher.
package runloop

import (
	"context"
	"sync"
	"time"
)

// Dispatcher posts fn to the editor goroutine
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function such as fyne.Do to a Dispatcher
type DispatchFunc func(fn func())

// Dispatch calls f(fn)
func (f DispatchFunc) Dispatch(fn func()) {
	f(fn)
}

// Loop is a FIFO task queue drained by a single goroutine
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	closed bool
}

// New creates an empty loop
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch queues fn. Tasks posted after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains tasks until ctx is done or the loop is closed
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending executes every task queued so far, including tasks those tasks
// queue, and returns how many ran. It must be called from the editor goroutine.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return ran
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		task()
		ran++
	}
}

// RunUntil drains tasks until cond holds or the timeout expires. It reports
// whether cond was met.
func (l *Loop) RunUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		l.RunPending()
		if cond() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-l.wake:
		case <-time.After(min(remaining, 10*time.Millisecond)):
		}
	}
}

// Close drops queued tasks and stops Run
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.tasks = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}
