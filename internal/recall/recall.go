// Package recall puts a history entry back on the clipboard and pastes it
// into the frontmost application, without the poller capturing the write as
// a new entry.
package recall

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/loop"
	"go.klb.dev/stash/internal/paste"
)

const (
	// DefaultPasteDelay lets the picker close and the previous application
	// regain keyboard focus before the paste keystroke is sent.
	DefaultPasteDelay = 100 * time.Millisecond
	// DefaultResumeDelay covers the OS processing the simulated keystroke
	// and any clipboard read-back it causes.
	DefaultResumeDelay = 500 * time.Millisecond
)

// Writer is the write side of a clip.Backend.
type Writer interface {
	Write(c history.Content) error
}

// Suppressor is implemented by the poller.
type Suppressor interface {
	SetSuppressed(on bool)
}

// Action performs recalls. It must be used from the scheduler's goroutine.
type Action struct {
	w     Writer
	sim   paste.Simulator
	sup   Suppressor
	sched loop.Scheduler

	pasteDelay  time.Duration
	resumeDelay time.Duration

	gen     uint64
	pending []func()
	warned  bool
}

// Option configures an Action.
type Option func(*Action)

// WithDelays overrides the paste and resume delays. Zero keeps the default.
func WithDelays(pasteDelay, resumeDelay time.Duration) Option {
	return func(a *Action) {
		if pasteDelay > 0 {
			a.pasteDelay = pasteDelay
		}
		if resumeDelay > 0 {
			a.resumeDelay = resumeDelay
		}
	}
}

// SetDelays changes the delays used by later recalls. Zero keeps the
// current value.
func (a *Action) SetDelays(pasteDelay, resumeDelay time.Duration) {
	WithDelays(pasteDelay, resumeDelay)(a)
}

// New returns an Action. sim may be nil, in which case recalls only write
// the clipboard.
func New(w Writer, sim paste.Simulator, sup Suppressor, sched loop.Scheduler, opts ...Option) *Action {
	a := &Action{
		w:           w,
		sim:         sim,
		sup:         sup,
		sched:       sched,
		pasteDelay:  DefaultPasteDelay,
		resumeDelay: DefaultResumeDelay,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Recall writes e to the clipboard with capture suppressed, then (when
// doPaste is set) simulates a paste after the paste delay, and lifts the
// suppression after the resume delay. Starting a recall cancels the pending
// steps of any earlier one.
func (a *Action) Recall(e history.Entry, doPaste bool) error {
	a.cancelPending()
	a.gen++
	gen := a.gen

	a.sup.SetSuppressed(true)
	if err := a.w.Write(e.Content); err != nil {
		a.sup.SetSuppressed(false)
		return fmt.Errorf("recall %s: write clipboard: %w", e.ID, err)
	}
	slog.Debug("entry written to clipboard", "id", e.ID, "kind", e.Content.Kind(), "paste", doPaste)

	resume := func() {
		if gen == a.gen {
			a.sup.SetSuppressed(false)
			a.pending = nil
		}
	}

	if !doPaste || a.sim == nil {
		a.pending = append(a.pending, a.sched.After(a.pasteDelay+a.resumeDelay, resume))
		return nil
	}

	a.pending = append(a.pending, a.sched.After(a.pasteDelay, func() {
		if gen != a.gen {
			return
		}
		a.simulate()
		a.pending = append(a.pending, a.sched.After(a.resumeDelay, resume))
	}))
	return nil
}

func (a *Action) simulate() {
	err := a.sim.Simulate()
	switch {
	case err == nil:
	case errors.Is(err, paste.ErrUnavailable):
		if !a.warned {
			slog.Warn("paste simulation unavailable; entries are recalled to the clipboard only",
				"simulator", a.sim.Name(), "err", err)
			a.warned = true
		}
	default:
		slog.Error("paste simulation failed", "simulator", a.sim.Name(), "err", err)
	}
}

func (a *Action) cancelPending() {
	for _, cancel := range a.pending {
		cancel()
	}
	a.pending = nil
}

// Busy reports whether a recall is still inside its suppression window.
func (a *Action) Busy() bool { return len(a.pending) > 0 }
