// Package hub fans history events out to watchers. It is transport-agnostic:
// watchers register, receive events through Send, and the engine publishes.
// The hub implements history.Observer so a store can feed it directly.
package hub

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.klb.dev/stash/internal/history"
)

// EventType names what happened to an entry.
type EventType string

const (
	EventCaptured EventType = "captured"
	EventRemoved  EventType = "removed"
	EventRecalled EventType = "recalled"
)

// Event is a history change delivered to a watcher.
type Event struct {
	Type  EventType
	Entry history.Entry
	// Reason is set on removals ("deleted", "cleared", "count", "size", "duplicate").
	Reason string
	// Replay marks the newest entry delivered on Register, not a new change.
	Replay bool
}

// Info describes a registered watcher.
type Info struct {
	ID    string
	Name  string
	Kinds []history.Kind // empty means every kind
	Since time.Time
}

// Watcher is anything that can receive events from the hub.
type Watcher interface {
	ID() string
	Info() Info
	// Send delivers an event to the watcher. Must be non-blocking.
	Send(Event)
}

// ChangeListener is notified whenever the number of watchers changes.
type ChangeListener interface {
	OnWatcherChange(total int)
}

// Hub routes history events to all registered watchers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	recent   []history.Entry // newest first, mirrors the history

	listenerMu sync.RWMutex
	listener   ChangeListener
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{watchers: make(map[string]Watcher)}
}

// SetChangeListener registers a listener that is called whenever the watcher
// set changes. Only one listener is supported; calling again replaces it.
func (h *Hub) SetChangeListener(l ChangeListener) {
	h.listenerMu.Lock()
	h.listener = l
	h.listenerMu.Unlock()
}

// Register adds a watcher and immediately replays the newest entry that
// passes the watcher's kind filter.
func (h *Hub) Register(w Watcher) {
	info := w.Info()

	h.mu.Lock()
	h.watchers[w.ID()] = w
	var (
		latest history.Entry
		found  bool
	)
	for _, e := range h.recent {
		if accepts(info.Kinds, e.Content.Kind()) {
			latest, found = e, true
			break
		}
	}
	total := len(h.watchers)
	h.mu.Unlock()

	slog.Info("watcher registered", "watcher", w.ID(), "name", info.Name, "total", total)
	h.notifyListener(total)

	if found {
		w.Send(Event{Type: EventCaptured, Entry: latest, Replay: true})
	}
}

// Unregister removes a watcher from the hub.
func (h *Hub) Unregister(w Watcher) {
	h.mu.Lock()
	delete(h.watchers, w.ID())
	total := len(h.watchers)
	h.mu.Unlock()

	slog.Info("watcher unregistered", "watcher", w.ID(), "total", total)
	h.notifyListener(total)
}

// Publish fans ev out to every watcher whose filter accepts the entry's kind.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	switch ev.Type {
	case EventCaptured:
		h.recent = slices.Insert(h.recent, 0, ev.Entry)
	case EventRemoved:
		h.recent = slices.DeleteFunc(h.recent, func(e history.Entry) bool { return e.ID == ev.Entry.ID })
	}
	targets := make([]Watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		targets = append(targets, w)
	}
	h.mu.Unlock()

	kind := ev.Entry.Content.Kind()
	for _, w := range targets {
		if accepts(w.Info().Kinds, kind) {
			w.Send(ev)
		}
	}
}

// Watchers returns a snapshot of all current watcher metadata.
func (h *Hub) Watchers() []Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Info, 0, len(h.watchers))
	for _, w := range h.watchers {
		out = append(out, w.Info())
	}
	return out
}

func (h *Hub) Captured(e history.Entry) { h.Publish(Event{Type: EventCaptured, Entry: e}) }

func (h *Hub) Rejected(history.Content, history.RejectReason) {}

func (h *Hub) Removed(r history.Removal) {
	h.Publish(Event{Type: EventRemoved, Entry: r.Entry, Reason: r.Reason.String()})
}

// notifyListener calls the registered ChangeListener if one is set.
func (h *Hub) notifyListener(total int) {
	h.listenerMu.RLock()
	l := h.listener
	h.listenerMu.RUnlock()
	if l != nil {
		l.OnWatcherChange(total)
	}
}

// accepts reports whether a watcher filtering on kinds wants kind. An empty
// filter accepts everything.
func accepts(kinds []history.Kind, kind history.Kind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, kind)
}
