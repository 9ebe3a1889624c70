// Package selection tracks the highlighted entry of the history picker. The
// index always refers to the current filtered view, never to the raw
// history, and is kept valid as the filter text or the history changes.
package selection

import (
	"fmt"

	"go.klb.dev/stash/internal/history"
)

// None is the index reported when the filtered view is empty.
const None = -1

// Source is the part of the history the machine reads and mutates.
type Source interface {
	Query(search string) []history.Entry
	Delete(id string) bool
}

// Op is a selection transition.
type Op uint8

const (
	OpView Op = iota // no transition; report the current view
	OpShow
	OpSearch
	OpUp
	OpDown
	OpDelete
	OpActivate
	OpDismiss
)

var opNames = [...]string{"view", "show", "search", "up", "down", "delete", "activate", "dismiss"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// ParseOp maps a name from String back to its Op.
func ParseOp(s string) (Op, error) {
	for i, n := range opNames {
		if n == s {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown selection op %q", s)
}

// View is a snapshot handed to renderers after each transition.
type View struct {
	Entries  []history.Entry
	Selected int // index into Entries, or None
	Search   string
	Visible  bool
}

// SelectedEntry returns the highlighted entry, if any.
func (v View) SelectedEntry() (history.Entry, bool) {
	if v.Selected < 0 || v.Selected >= len(v.Entries) {
		return history.Entry{}, false
	}
	return v.Entries[v.Selected], true
}

// Machine is not safe for concurrent use.
type Machine struct {
	src     Source
	index   int
	search  string
	visible bool
}

// New returns a hidden machine over src.
func New(src Source) *Machine { return &Machine{src: src} }

// Show resets the selection to the first entry with no filter.
func (m *Machine) Show() {
	m.index = 0
	m.search = ""
	m.visible = true
}

// Dismiss hides the picker. Nothing carries over to the next Show.
func (m *Machine) Dismiss() { m.visible = false }

// Visible reports whether the picker is showing.
func (m *Machine) Visible() bool { return m.visible }

// Search replaces the filter text. The selection goes back to the top
// because the previously selected entry may have moved or gone.
func (m *Machine) Search(text string) {
	m.search = text
	m.index = 0
}

// Up moves the selection towards the top, stopping at the first entry.
func (m *Machine) Up() {
	m.clamp(len(m.filtered()))
	if m.index > 0 {
		m.index--
	}
}

// Down moves the selection towards the bottom, stopping at the last entry.
func (m *Machine) Down() {
	n := len(m.filtered())
	if n == 0 {
		return
	}
	m.clamp(n)
	m.index = min(m.index+1, n-1)
}

// clamp pulls the index back into a view of n entries. The history can
// shrink underneath the picker (eviction, clear, delete from another
// client).
func (m *Machine) clamp(n int) {
	if m.index >= n {
		m.index = max(n-1, 0)
	}
}

// DeleteSelected removes the highlighted entry from the history and clamps
// the selection to the shrunken view. It reports false when nothing was
// selected.
func (m *Machine) DeleteSelected() bool {
	entries := m.filtered()
	m.clamp(len(entries))
	if len(entries) == 0 {
		return false
	}
	m.src.Delete(entries[m.index].ID)
	if n := len(m.filtered()); m.index >= n && n > 0 {
		m.index = n - 1
	}
	return true
}

// Activate returns the highlighted entry. The caller recalls it and then
// dismisses the picker.
func (m *Machine) Activate() (history.Entry, bool) {
	return m.View().SelectedEntry()
}

// Selected returns the index into the filtered view, or None when the view
// is empty.
func (m *Machine) Selected() int {
	return m.View().Selected
}

// SearchText returns the current filter.
func (m *Machine) SearchText() string { return m.search }

// View returns the filtered entries and the selection. It does not change
// the machine: an index left past the end of a shrunken history is reported
// as the last entry and stored that way by the next transition.
func (m *Machine) View() View {
	entries := m.filtered()
	sel := m.index
	if len(entries) == 0 {
		sel = None
	} else if sel >= len(entries) {
		sel = len(entries) - 1
	}
	return View{Entries: entries, Selected: sel, Search: m.search, Visible: m.visible}
}

// Apply performs op (using text for OpSearch) and returns the resulting view
// plus the entry to recall when op is OpActivate and something is selected.
func (m *Machine) Apply(op Op, text string) (View, *history.Entry) {
	var activated *history.Entry
	switch op {
	case OpShow:
		m.Show()
	case OpSearch:
		m.Search(text)
	case OpUp:
		m.Up()
	case OpDown:
		m.Down()
	case OpDelete:
		m.DeleteSelected()
	case OpActivate:
		if e, ok := m.Activate(); ok {
			activated = &e
			m.Dismiss()
		}
	case OpDismiss:
		m.Dismiss()
	}
	return m.View(), activated
}

func (m *Machine) filtered() []history.Entry { return m.src.Query(m.search) }
