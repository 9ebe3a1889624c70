package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/stash/internal/rpc"
)

type call struct{ op, text string }

type fakeDriver struct {
	mu    sync.Mutex
	calls []call
	resp  *rpc.SelectResponse
	err   error
}

func (d *fakeDriver) Select(_ context.Context, op, text string) (*rpc.SelectResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call{op, text})
	if d.err != nil {
		return nil, d.err
	}
	r := *d.resp
	return &r, nil
}

func (d *fakeDriver) ops() []call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]call(nil), d.calls...)
}

// run executes cmd and any batched children, dropping those that block
// (cursor blinks, refresh ticks).
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, run(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func viewOf(msgs []tea.Msg) (viewMsg, bool) {
	for _, m := range msgs {
		if v, ok := m.(viewMsg); ok {
			return v, true
		}
	}
	return viewMsg{}, false
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func visible() *rpc.SelectResponse {
	return &rpc.SelectResponse{
		Visible:  true,
		Selected: 0,
		Entries: []rpc.Entry{
			{ID: "b", Kind: "text", Text: "second", Timestamp: now.Add(-2 * time.Minute)},
			{ID: "a", Kind: "text", Text: "first", Timestamp: now.Add(-time.Hour)},
		},
	}
}

func TestModel_InitShows(t *testing.T) {
	d := &fakeDriver{resp: visible()}
	m := New(d, WithRefresh(time.Hour))

	v, ok := viewOf(run(m.Init()))
	require.True(t, ok)
	assert.True(t, v.resp.Visible)
	assert.Equal(t, []call{{"show", ""}}, d.ops())
}

func TestModel_KeysMapToOps(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, "up"},
		{tea.KeyMsg{Type: tea.KeyDown}, "down"},
		{tea.KeyMsg{Type: tea.KeyCtrlN}, "down"},
		{tea.KeyMsg{Type: tea.KeyEnter}, "activate"},
		{tea.KeyMsg{Type: tea.KeyCtrlD}, "delete"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "dismiss"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.key.String(), func(t *testing.T) {
			d := &fakeDriver{resp: visible()}
			m := New(d)
			_, cmd := m.Update(tt.key)
			run(cmd)
			assert.Equal(t, []call{{tt.want, ""}}, d.ops())
		})
	}
}

func TestModel_TypingSearches(t *testing.T) {
	d := &fakeDriver{resp: visible()}
	var m tea.Model = New(d)

	var cmd tea.Cmd
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	run(cmd)
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	run(cmd)

	assert.Equal(t, []call{{"search", "a"}, {"search", "ab"}}, d.ops())
	assert.Equal(t, "ab", m.(Model).input.Value())
}

func TestModel_HiddenViewQuits(t *testing.T) {
	m := New(&fakeDriver{resp: visible()})

	next, cmd := m.Update(viewMsg{seq: 1, resp: &rpc.SelectResponse{Selected: -1}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(Model).done)
	assert.Empty(t, next.View())
}

func TestModel_StaleRepliesDropped(t *testing.T) {
	var m tea.Model = New(&fakeDriver{resp: visible()})

	fresh := visible()
	fresh.Selected = 1
	m, _ = m.Update(viewMsg{seq: 3, resp: fresh})
	m, _ = m.Update(viewMsg{seq: 2, resp: visible()})

	assert.Equal(t, 1, m.(Model).view.Selected)
}

func TestModel_ErrorQuits(t *testing.T) {
	d := &fakeDriver{err: errors.New("daemon gone")}
	m := New(d)

	msgs := run(m.call(0, 0, ""))
	require.Len(t, msgs, 1)
	next, cmd := m.Update(msgs[0])
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.EqualError(t, next.(Model).Err(), "daemon gone")
}

func TestModel_View(t *testing.T) {
	var m tea.Model = New(&fakeDriver{resp: visible()}, WithClock(func() time.Time { return now }))
	assert.Contains(t, m.View(), "loading")

	m, _ = m.Update(viewMsg{seq: 1, resp: visible()})
	out := m.View()
	assert.Contains(t, out, "› second")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "1 hour ago")

	m, _ = m.Update(viewMsg{seq: 2, resp: &rpc.SelectResponse{Visible: true, Selected: -1}})
	out = m.View()
	assert.Contains(t, out, "Clipboard history is empty")
	assert.Contains(t, out, "No entry selected")

	m, _ = m.Update(viewMsg{seq: 3, resp: &rpc.SelectResponse{Visible: true, Selected: -1, Search: "zzz"}})
	assert.Contains(t, m.View(), "No matches found")
}

func TestModel_DetailShowsSelectedEntry(t *testing.T) {
	var m tea.Model = New(&fakeDriver{}, WithClock(func() time.Time { return now }))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})

	resp := &rpc.SelectResponse{
		Visible:  true,
		Selected: 0,
		Entries: []rpc.Entry{
			{ID: "t", Kind: "text", Text: "func main() {\n\tprintln(1)\n}", Timestamp: now},
			{ID: "i", Kind: "image", Size: 2048, Timestamp: now.Add(-time.Minute)},
		},
	}
	m, _ = m.Update(viewMsg{seq: 1, resp: resp})
	out := m.View()
	assert.Contains(t, out, "func main() {")
	assert.Contains(t, out, "println(1)")
	assert.Contains(t, out, "╭")

	img := *resp
	img.Selected = 1
	m, _ = m.Update(viewMsg{seq: 2, resp: &img})
	out = m.View()
	assert.Contains(t, out, "PNG, 2.0 KiB, copied 1 minute ago")
}

func TestModel_MultiLineEntriesUseOneRow(t *testing.T) {
	var m tea.Model = New(&fakeDriver{}, WithClock(func() time.Time { return now }))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 9})

	four := "one\ntwo\nthree\nfour"
	m, _ = m.Update(viewMsg{seq: 1, resp: &rpc.SelectResponse{
		Visible:  true,
		Selected: 2,
		Entries: []rpc.Entry{
			{ID: "a", Kind: "text", Text: four, Timestamp: now},
			{ID: "b", Kind: "text", Text: four, Timestamp: now},
			{ID: "c", Kind: "text", Text: "last", Timestamp: now},
		},
	}})

	out := m.View()
	assert.LessOrEqual(t, strings.Count(out, "\n")+1, 9)
	assert.Contains(t, out, "one two three four")
	assert.Contains(t, out, "› last")
}

func TestModel_WindowFollowsSelection(t *testing.T) {
	m := New(&fakeDriver{})
	m.height = 7 // two rows
	m.view = &rpc.SelectResponse{Entries: make([]rpc.Entry, 5), Selected: 3}

	lo, hi := m.window()
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)

	m.view.Selected = 0
	lo, hi = m.window()
	assert.Equal(t, 0, lo)
	assert.Equal(t, 2, hi)
}
