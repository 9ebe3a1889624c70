// Package loop provides the single goroutine that owns all mutable history
// and selection state. Timers, RPC handlers and hotkey callbacks never touch
// that state directly; they post closures here and the loop runs them one at
// a time, in order.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Call once the loop has exited.
var ErrStopped = errors.New("loop: stopped")

// Scheduler runs fn after d. The returned func cancels the callback if it
// has not started yet; calling it more than once is harmless.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// Loop is a FIFO executor bound to one goroutine.
type Loop struct {
	work chan func()
	done chan struct{}
	once sync.Once
}

// New returns a loop with room for depth pending closures.
func New(depth int) *Loop {
	if depth <= 0 {
		depth = 64
	}
	return &Loop{
		work: make(chan func(), depth),
		done: make(chan struct{}),
	}
}

// Run executes posted closures until ctx is cancelled or Stop is called.
// Call it exactly once.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.work:
			fn()
		}
	}
}

// Stop makes Run return. Pending closures are dropped. Safe to call
// repeatedly and before Run.
func (l *Loop) Stop() { l.once.Do(func() { close(l.done) }) }

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues fn. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// After implements Scheduler. The callback is posted to the loop when the
// timer fires, so it runs serialised with everything else.
func (l *Loop) After(d time.Duration, fn func()) func() {
	var mu sync.Mutex
	cancelled := false
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			mu.Lock()
			c := cancelled
			mu.Unlock()
			if !c {
				fn()
			}
		})
	})
	return func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		t.Stop()
	}
}
