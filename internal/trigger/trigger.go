// Package trigger owns the global hotkey that toggles the history picker.
// The binding can be swapped at runtime (the configured combination changed)
// without ever having two bindings active at once.
package trigger

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
)

// ErrUnavailable means global hotkeys cannot be registered on this host.
var ErrUnavailable = errors.New("global hotkey unavailable")

// Modifier is a platform-neutral modifier key name.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt" // Option on macOS
	ModSuper Modifier = "cmd" // Command on macOS, Windows key / Super elsewhere
)

var modifierAliases = map[string]Modifier{
	"ctrl": ModCtrl, "control": ModCtrl,
	"shift": ModShift,
	"alt":   ModAlt, "option": ModAlt, "opt": ModAlt,
	"cmd": ModSuper, "command": ModSuper, "super": ModSuper, "win": ModSuper, "meta": ModSuper,
}

var modifierOrder = []Modifier{ModCtrl, ModAlt, ModShift, ModSuper}

// Combo is a key combination such as cmd+shift+v.
type Combo struct {
	Mods []Modifier // deduplicated, in canonical order
	Key  string     // lower-case key name: a-z, 0-9, space, return, escape, tab
}

// DefaultCombo is Cmd+Shift+V on macOS and Ctrl+Shift+V elsewhere.
func DefaultCombo() string {
	if runtime.GOOS == "darwin" {
		return "cmd+shift+v"
	}
	return "ctrl+shift+v"
}

// ParseCombo parses "mod+mod+key". Modifier names are case-insensitive and
// may come in any order; at least one modifier is required.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), "+")
	if len(parts) < 2 {
		return Combo{}, fmt.Errorf("hotkey %q: need at least one modifier and a key", s)
	}
	key := parts[len(parts)-1]
	if !validKey(key) {
		return Combo{}, fmt.Errorf("hotkey %q: unsupported key %q", s, key)
	}
	seen := map[Modifier]bool{}
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierAliases[p]
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
		}
		seen[m] = true
	}
	c := Combo{Key: key}
	for _, m := range modifierOrder {
		if seen[m] {
			c.Mods = append(c.Mods, m)
		}
	}
	return c, nil
}

func validKey(k string) bool {
	if len(k) == 1 {
		return (k[0] >= 'a' && k[0] <= 'z') || (k[0] >= '0' && k[0] <= '9')
	}
	switch k {
	case "space", "return", "enter", "escape", "esc", "tab":
		return true
	}
	return false
}

func (c Combo) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Equal reports whether c and o describe the same combination.
func (c Combo) Equal(o Combo) bool { return c.Key == o.Key && slices.Equal(c.Mods, o.Mods) }

// Binding is an installed hotkey.
type Binding interface {
	Unbind() error
}

// Binder installs a hotkey that calls fn each time it is pressed.
type Binder interface {
	Bind(c Combo, fn func()) (Binding, error)
}

// Trigger manages one hotkey binding.
type Trigger struct {
	mu      sync.Mutex
	binder  Binder
	fn      func()
	combo   Combo
	binding Binding
}

// New returns an unregistered trigger calling fn on every press.
func New(b Binder, fn func()) *Trigger {
	return &Trigger{binder: b, fn: fn}
}

// Register installs c, replacing any current binding. It is Reregister
// under a friendlier name for the first call.
func (t *Trigger) Register(c Combo) error { return t.Reregister(c) }

// Reregister swaps the binding for c. The old binding is removed before the
// new one is installed; if installing fails, the old binding is put back so
// the user keeps a working hotkey.
func (t *Trigger) Reregister(c Combo) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.binding != nil && t.combo.Equal(c) {
		return nil
	}

	prev, prevCombo := t.binding, t.combo
	if prev != nil {
		if err := prev.Unbind(); err != nil {
			slog.Warn("hotkey unbind failed", "hotkey", prevCombo, "err", err)
		}
		t.binding = nil
	}

	b, err := t.binder.Bind(c, t.fn)
	if err != nil {
		if prev != nil {
			if restored, rerr := t.binder.Bind(prevCombo, t.fn); rerr == nil {
				t.binding = restored
			} else {
				slog.Warn("hotkey restore failed", "hotkey", prevCombo, "err", rerr)
			}
		}
		return fmt.Errorf("register hotkey %s: %w", c, err)
	}
	t.binding, t.combo = b, c
	slog.Info("hotkey registered", "hotkey", c)
	return nil
}

// Unregister removes the binding. Safe to call when nothing is registered.
func (t *Trigger) Unregister() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.binding == nil {
		return
	}
	if err := t.binding.Unbind(); err != nil {
		slog.Warn("hotkey unbind failed", "hotkey", t.combo, "err", err)
	}
	t.binding = nil
}

// Current returns the active combination, if any.
func (t *Trigger) Current() (Combo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.combo, t.binding != nil
}
