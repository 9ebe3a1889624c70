// Package engine wires the history, poller, selection and recall components
// onto one event loop and exposes them as synchronous, context-aware
// commands for the RPC server and the hotkey.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.klb.dev/stash/internal/clip"
	"go.klb.dev/stash/internal/config"
	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/hub"
	"go.klb.dev/stash/internal/loop"
	"go.klb.dev/stash/internal/metrics"
	"go.klb.dev/stash/internal/panel"
	"go.klb.dev/stash/internal/paste"
	"go.klb.dev/stash/internal/poller"
	"go.klb.dev/stash/internal/recall"
	"go.klb.dev/stash/internal/selection"
	"go.klb.dev/stash/internal/trigger"
)

var (
	// ErrNotFound is returned for an id that is not in the history.
	ErrNotFound = errors.New("entry not found")
	// ErrOutOfRange is returned for a #n reference past the end of the history.
	ErrOutOfRange = errors.New("entry index out of range")
	// ErrInvalidRef is returned for a malformed #n reference.
	ErrInvalidRef = errors.New("invalid entry reference")
)

// Stats is a point-in-time summary of the daemon.
type Stats struct {
	Entries       int
	TotalBytes    int64
	Limits        history.Limits
	Hotkey        string // empty when no hotkey is bound
	Clipboard     string
	Paste         string
	Prefer        string
	Suppressed    bool
	PickerVisible bool
	Watchers      int
	Started       time.Time
}

// Engine owns all clipboard history state. Every method may be called from
// any goroutine.
type Engine struct {
	loop    *loop.Loop
	board   clip.Backend
	store   *history.Store
	poll    *poller.Poller
	recall  *recall.Action
	sel     *selection.Machine
	panel   panel.Panel
	sim     paste.Simulator
	trig    *trigger.Trigger
	hub     *hub.Hub
	metrics *metrics.Collector

	cfg     config.Config
	started time.Time
}

type options struct {
	panel   panel.Panel
	sim     paste.Simulator
	binder  trigger.Binder
	sched   loop.Scheduler
	metrics *metrics.Collector
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*options)

// WithPanel sets the picker presentation. The default only tracks visibility.
func WithPanel(p panel.Panel) Option { return func(o *options) { o.panel = p } }

// WithSimulator overrides the platform paste simulator.
func WithSimulator(s paste.Simulator) Option { return func(o *options) { o.sim = s } }

// WithBinder enables the global hotkey. Without it the picker is only
// reachable through Toggle.
func WithBinder(b trigger.Binder) Option { return func(o *options) { o.binder = b } }

// WithScheduler replaces the loop's own timers. Callbacks from s must run on
// the loop goroutine; tests drive a loop.Fake from inside Do.
func WithScheduler(s loop.Scheduler) Option { return func(o *options) { o.sched = s } }

// WithMetrics shares a collector, e.g. with the RPC server's /metrics route.
func WithMetrics(m *metrics.Collector) Option { return func(o *options) { o.metrics = m } }

// WithClock sets the capture timestamp source.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

type captureFunc func(history.Content) history.CaptureResult

func (f captureFunc) Capture(c history.Content) history.CaptureResult { return f(c) }

// New builds a stopped engine over board.
func New(board clip.Backend, cfg config.Config, opts ...Option) *Engine {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.panel == nil {
		o.panel = &panel.Nop{}
	}
	if o.sim == nil {
		o.sim = paste.New()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	e := &Engine{
		loop:    loop.New(0),
		board:   board,
		panel:   o.panel,
		sim:     o.sim,
		hub:     hub.New(),
		metrics: o.metrics,
		cfg:     cfg,
		started: time.Now(),
	}
	var sched loop.Scheduler = e.loop
	if o.sched != nil {
		sched = o.sched
	}

	e.hub.SetChangeListener(o.metrics)

	storeOpts := []history.Option{history.WithObserver(observers{logObserver{}, o.metrics, e.hub})}
	if o.now != nil {
		storeOpts = append(storeOpts, history.WithClock(o.now))
	}
	e.store = history.New(cfg.Limits, storeOpts...)
	e.poll = poller.New(board, captureFunc(e.capture), sched,
		poller.WithInterval(cfg.PollInterval),
		poller.WithPreference(cfg.Prefer),
	)
	e.recall = recall.New(board, o.sim, e.poll, sched, recall.WithDelays(cfg.PasteDelay, cfg.ResumeDelay))
	e.sel = selection.New(e.store)
	if o.binder != nil {
		e.trig = trigger.New(o.binder, e.Toggle)
	}
	return e
}

// Run starts polling and registers the hotkey, then serves commands until
// ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"clipboard", e.board.Name(),
		"paste", e.sim.Name(),
		"item_limit", e.cfg.Limits.Item,
		"total_limit", e.cfg.Limits.Total,
		"prefer", e.cfg.Prefer,
	)

	if e.trig != nil {
		if err := e.trig.Register(e.cfg.Hotkey); err != nil {
			slog.Warn("hotkey unavailable; open the picker with `stash toggle` or `stash pick`", "err", err)
		}
	}
	e.loop.Post(e.poll.Start)

	e.loop.Run(ctx)

	// The loop has exited, so nothing else is touching engine state.
	e.poll.Stop()
	if e.trig != nil {
		e.trig.Unregister()
	}
	e.panel.Hide()
	slog.Info("engine stopped", "entries", e.store.Len())
	return nil
}

// Stop makes Run return.
func (e *Engine) Stop() { e.loop.Stop() }

// Metrics returns the engine's collector.
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }

// Hub returns the event hub that watchers register with.
func (e *Engine) Hub() *hub.Hub { return e.hub }

// Do runs fn on the loop goroutine and waits for it.
func (e *Engine) Do(ctx context.Context, fn func()) error { return e.loop.Call(ctx, fn) }

func (e *Engine) capture(c history.Content) history.CaptureResult {
	res := e.store.Capture(c)
	if res.Stored {
		e.syncSize()
	}
	return res
}

func (e *Engine) syncSize() { e.metrics.SetSize(e.store.Len(), e.store.TotalSize()) }

// lookup resolves an entry id, or "#n" for the n-th most recent entry
// (counting from 1).
func (e *Engine) lookup(ref string) (history.Entry, error) {
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil {
			return history.Entry{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
		}
		if i < 1 || i > e.store.Len() {
			return history.Entry{}, fmt.Errorf("%w: %s (history holds %d)", ErrOutOfRange, ref, e.store.Len())
		}
		return e.store.Query("")[i-1], nil
	}
	if en, ok := e.store.Get(ref); ok {
		return en, nil
	}
	return history.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// List returns the entries matching search, most recent first.
func (e *Engine) List(ctx context.Context, search string) ([]history.Entry, error) {
	var out []history.Entry
	if err := e.loop.Call(ctx, func() { out = e.store.Query(search) }); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entry by id or #n.
func (e *Engine) Get(ctx context.Context, ref string) (history.Entry, error) {
	var (
		en  history.Entry
		err error
	)
	if cerr := e.loop.Call(ctx, func() { en, err = e.lookup(ref) }); cerr != nil {
		return history.Entry{}, cerr
	}
	return en, err
}

// Recall writes an entry back to the clipboard and, when paste is set and
// pasting is not disabled, pastes it into the frontmost application. The
// history order is not changed.
func (e *Engine) Recall(ctx context.Context, ref string, paste bool) (history.Entry, error) {
	var (
		en  history.Entry
		err error
	)
	cerr := e.loop.Call(ctx, func() {
		if en, err = e.lookup(ref); err == nil {
			err = e.recallEntry(en, paste)
		}
	})
	if cerr != nil {
		return history.Entry{}, cerr
	}
	return en, err
}

func (e *Engine) recallEntry(en history.Entry, doPaste bool) error {
	doPaste = doPaste && !e.cfg.NoPaste
	if err := e.recall.Recall(en, doPaste); err != nil {
		return err
	}
	e.metrics.Recalled(doPaste)
	e.hub.Publish(hub.Event{Type: hub.EventRecalled, Entry: en})
	slog.Info("entry recalled", "id", en.ID, "kind", en.Content.Kind(), "paste", doPaste)
	return nil
}

// Delete removes one entry by id or #n.
func (e *Engine) Delete(ctx context.Context, ref string) error {
	var err error
	cerr := e.loop.Call(ctx, func() {
		var en history.Entry
		if en, err = e.lookup(ref); err == nil {
			e.store.Delete(en.ID)
			e.syncSize()
		}
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// Clear empties the history and returns the number of entries dropped.
func (e *Engine) Clear(ctx context.Context) (int, error) {
	var n int
	if err := e.loop.Call(ctx, func() {
		n = e.store.Clear()
		e.syncSize()
	}); err != nil {
		return 0, err
	}
	slog.Info("history cleared", "entries", n)
	return n, nil
}

// Copy puts c on the clipboard. It is captured like any other copy.
func (e *Engine) Copy(ctx context.Context, c history.Content) error {
	var err error
	if cerr := e.loop.Call(ctx, func() { err = e.board.Write(c) }); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// Select applies a picker transition. Activating recalls the highlighted
// entry with paste and hides the picker; dismissing hides it.
func (e *Engine) Select(ctx context.Context, op selection.Op, text string) (selection.View, error) {
	var (
		view selection.View
		err  error
	)
	cerr := e.loop.Call(ctx, func() {
		var activated *history.Entry
		view, activated = e.sel.Apply(op, text)
		switch {
		case activated != nil:
			e.panel.Hide()
			err = e.recallEntry(*activated, true)
		case op == selection.OpDismiss:
			e.panel.Hide()
		case op == selection.OpDelete:
			e.syncSize()
		}
	})
	if cerr != nil {
		return selection.View{}, cerr
	}
	return view, err
}

// Toggle shows the picker, or hides it when it is showing. It is the hotkey
// callback and does not wait for the loop.
func (e *Engine) Toggle() { e.loop.Post(e.toggle) }

func (e *Engine) toggle() {
	if e.sel.Visible() {
		e.sel.Dismiss()
		e.panel.Hide()
		slog.Debug("picker hidden")
		return
	}
	e.sel.Show()
	if err := e.panel.Show(); err != nil {
		slog.Warn("picker unavailable", "err", err)
		e.sel.Dismiss()
		return
	}
	slog.Debug("picker shown")
}

// PickerClosed tells the engine the picker went away without a Dismiss,
// e.g. its window was closed.
func (e *Engine) PickerClosed() { e.loop.Post(e.sel.Dismiss) }

// Stats reports the current state.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := e.loop.Call(ctx, func() {
		s = Stats{
			Entries:       e.store.Len(),
			TotalBytes:    e.store.TotalSize(),
			Limits:        e.store.Limits(),
			Clipboard:     e.board.Name(),
			Paste:         e.sim.Name(),
			Prefer:        e.cfg.Prefer.String(),
			Suppressed:    e.poll.Suppressed(),
			PickerVisible: e.sel.Visible(),
			Started:       e.started,
		}
		if e.cfg.NoPaste {
			s.Paste = "disabled"
		}
	}); err != nil {
		return Stats{}, err
	}
	if e.trig != nil {
		if c, ok := e.trig.Current(); ok {
			s.Hotkey = c.String()
		}
	}
	s.Watchers = len(e.hub.Watchers())
	return s, nil
}

// Reconfigure applies a reloaded configuration. Limits take effect at once
// (a lowered total cap evicts immediately); the hotkey is swapped
// atomically. The picker command is fixed for the life of the process.
func (e *Engine) Reconfigure(ctx context.Context, cfg config.Config) error {
	var old config.Config
	if err := e.loop.Call(ctx, func() {
		old = e.cfg
		e.cfg = cfg
		if removed := e.store.SetLimits(cfg.Limits); len(removed) > 0 {
			slog.Info("entries evicted by new size limit", "evicted", len(removed), "total_limit", cfg.Limits.Total)
		}
		e.syncSize()
		e.poll.SetPreference(cfg.Prefer)
		e.poll.SetInterval(cfg.PollInterval)
		e.recall.SetDelays(cfg.PasteDelay, cfg.ResumeDelay)
	}); err != nil {
		return err
	}

	if !slices.Equal(old.Picker, cfg.Picker) {
		slog.Warn("picker command change takes effect after restart")
	}
	if e.trig != nil && !old.Hotkey.Equal(cfg.Hotkey) {
		if err := e.trig.Reregister(cfg.Hotkey); err != nil {
			return fmt.Errorf("reconfigure: %w", err)
		}
	}
	return nil
}
