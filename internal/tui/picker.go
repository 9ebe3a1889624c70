// Package tui is the terminal picker launched by the daemon when the hotkey
// fires. It holds no history of its own: every keystroke becomes a selection
// op sent to the daemon, and the daemon's view is what gets rendered.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/rpc"
	"go.klb.dev/stash/internal/selection"
)

const (
	defaultRefresh = time.Second
	callTimeout    = 2 * time.Second

	chromeLines  = 5  // title, input, blank, blank, help
	detailLines  = 5  // text rows inside the detail pane
	detailChrome = 3  // blank line and the pane's top and bottom border
	minListRows  = 3  // below this the detail pane is dropped
	defaultWidth = 76 // used until the first WindowSizeMsg
)

// Driver applies selection ops on the daemon. *rpc.Client satisfies it.
type Driver interface {
	Select(ctx context.Context, op, text string) (*rpc.SelectResponse, error)
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Activate key.Binding
	Delete   key.Binding
	Dismiss  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Activate, k.Delete, k.Dismiss}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p", "ctrl+k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n", "ctrl+j"),
		key.WithHelp("↓", "down"),
	),
	Activate: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "paste"),
	),
	Delete: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "delete"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "close"),
	),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("51"))
	kindStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// viewMsg carries the daemon's view for request seq.
type viewMsg struct {
	seq  int
	resp *rpc.SelectResponse
}

type errMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea model for the picker.
type Model struct {
	drv     Driver
	input   textinput.Model
	help    help.Model
	refresh time.Duration
	now     func() time.Time

	view    *rpc.SelectResponse
	seq     int // last request issued
	applied int // last response rendered
	err     error
	width   int
	height  int
	done    bool
}

// Option configures a Model.
type Option func(*Model)

// WithRefresh sets how often the view is re-fetched so that entries copied
// while the picker is open show up.
func WithRefresh(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.refresh = d
		}
	}
}

// WithClock overrides the clock used for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New returns a picker driving drv.
func New(drv Driver, opts ...Option) Model {
	in := textinput.New()
	in.Placeholder = "search"
	in.Prompt = "› "
	in.Focus()

	m := Model{
		drv:     drv,
		input:   in,
		help:    help.New(),
		refresh: defaultRefresh,
		now:     time.Now,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Err is the error that ended the picker, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.call(0, selection.OpShow, ""), m.tick())
}

// send issues op and bumps the sequence so stale replies are dropped.
func (m *Model) send(op selection.Op, text string) tea.Cmd {
	m.seq++
	return m.call(m.seq, op, text)
}

func (m Model) call(seq int, op selection.Op, text string) tea.Cmd {
	drv := m.drv
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		resp, err := drv.Select(ctx, op.String(), text)
		if err != nil {
			return errMsg{err: err}
		}
		return viewMsg{seq: seq, resp: resp}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		if msg.seq < m.applied {
			return m, nil
		}
		m.applied = msg.seq
		m.view = msg.resp
		if !msg.resp.Visible {
			// Activated, dismissed, or hidden by the hotkey.
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tea.Batch(m.send(selection.OpView, ""), m.tick())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			return m, m.send(selection.OpUp, "")
		case key.Matches(msg, keys.Down):
			return m, m.send(selection.OpDown, "")
		case key.Matches(msg, keys.Activate):
			return m, m.send(selection.OpActivate, "")
		case key.Matches(msg, keys.Delete):
			return m, m.send(selection.OpDelete, "")
		case key.Matches(msg, keys.Dismiss):
			return m, m.send(selection.OpDismiss, "")
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		return m, tea.Batch(cmd, m.send(selection.OpSearch, v))
	}
	return m, cmd
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("stash"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.view == nil:
		b.WriteString(dimStyle.Render("loading…"))
		b.WriteString("\n")
	case len(m.view.Entries) == 0 && m.view.Search != "":
		b.WriteString(dimStyle.Render("No matches found"))
		b.WriteString("\n")
	case len(m.view.Entries) == 0:
		b.WriteString(dimStyle.Render("Clipboard history is empty"))
		b.WriteString("\n")
	default:
		lo, hi := m.window()
		for i := lo; i < hi; i++ {
			b.WriteString(m.row(m.view.Entries[i], i == m.view.Selected))
			b.WriteString("\n")
		}
	}

	if m.view != nil && m.showDetail() {
		b.WriteString("\n")
		b.WriteString(m.detail())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

// showDetail reports whether the terminal is tall enough for the detail
// pane and a few list rows.
func (m Model) showDetail() bool {
	return m.height == 0 || m.height-chromeLines-detailChrome-detailLines >= minListRows
}

// window returns the [lo, hi) slice of entries that fits the terminal and
// keeps the selection on screen.
func (m Model) window() (int, int) {
	n := len(m.view.Entries)
	rows := n
	if m.height > 0 {
		reserve := chromeLines
		if m.showDetail() {
			reserve += detailChrome + detailLines
		}
		if avail := m.height - reserve; avail > 0 && avail < rows {
			rows = avail
		}
	}
	lo := 0
	if m.view.Selected >= rows {
		lo = m.view.Selected - rows + 1
	}
	return lo, min(lo+rows, n)
}

// row renders one entry on a single line: runs of whitespace, newlines
// included, collapse to one space.
func (m Model) row(e rpc.Entry, selected bool) string {
	age := humanize.RelTime(e.Timestamp, m.now(), "ago", "from now")
	meta := fmt.Sprintf("%-5s %s", e.Kind, age)
	label := strings.Join(strings.Fields(e.Display()), " ")
	if m.width > 0 {
		if room := m.width - lipgloss.Width(meta) - 4; room > 1 && len([]rune(label)) > room {
			label = string([]rune(label)[:room-1]) + "…"
		}
	}
	if selected {
		return selectedStyle.Render("› "+label) + "  " + dimStyle.Render(meta)
	}
	return "  " + label + "  " + kindStyle.Render(meta)
}

// detail renders the selected entry in a bordered pane: the full text
// wrapped to the pane, or a summary for images.
func (m Model) detail() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	inner := max(width-4, 10) // border and padding

	var lines []string
	if m.view.Selected < 0 || m.view.Selected >= len(m.view.Entries) {
		lines = []string{dimStyle.Render("No entry selected")}
	} else {
		e := m.view.Entries[m.view.Selected]
		age := humanize.RelTime(e.Timestamp, m.now(), "ago", "from now")
		if e.Kind == history.KindImage.String() {
			lines = []string{
				history.ImageLabel,
				dimStyle.Render(fmt.Sprintf("PNG, %s, copied %s", humanize.IBytes(uint64(e.Size)), age)),
			}
		} else {
			text := strings.ReplaceAll(e.Text, "\t", "    ")
			wrapped := lipgloss.NewStyle().Width(inner).Render(text)
			lines = strings.Split(wrapped, "\n")
			if len(lines) > detailLines {
				lines = lines[:detailLines]
				lines[detailLines-1] = dimStyle.Render("…")
			}
		}
	}
	for len(lines) < detailLines {
		lines = append(lines, "")
	}
	return detailStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}
