package loop

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually driven Scheduler. Callbacks run synchronously inside
// Advance, on the caller's goroutine, in deadline order.
type Fake struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// NewFake returns a Fake at time zero.
func NewFake() *Fake { return &Fake{} }

// After implements Scheduler.
func (f *Fake) After(d time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{at: f.now + d, seq: f.seq, fn: fn}
	f.pending = append(f.pending, t)
	return func() {
		f.mu.Lock()
		t.cancelled = true
		f.mu.Unlock()
	}
}

// Advance moves time forward by d, firing every callback that comes due,
// including ones scheduled by callbacks fired along the way.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()
	for {
		f.mu.Lock()
		t := f.nextDueLocked(target)
		if t == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = t.at
		f.mu.Unlock()
		t.fn()
	}
}

func (f *Fake) nextDueLocked(target time.Duration) *fakeTimer {
	live := f.pending[:0]
	for _, t := range f.pending {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	f.pending = live
	sort.Slice(f.pending, func(i, j int) bool {
		if f.pending[i].at != f.pending[j].at {
			return f.pending[i].at < f.pending[j].at
		}
		return f.pending[i].seq < f.pending[j].seq
	})
	if len(f.pending) == 0 || f.pending[0].at > target {
		return nil
	}
	t := f.pending[0]
	f.pending = f.pending[1:]
	return t
}

// Pending returns the number of live callbacks.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.pending {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Elapsed returns the fake time since creation.
func (f *Fake) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}
