package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/stash/internal/history"
)

// filled returns a store holding texts, the first one most recent.
func filled(texts ...string) *history.Store {
	s := history.New(history.Limits{})
	for i := len(texts) - 1; i >= 0; i-- {
		s.Capture(history.Text(texts[i]))
	}
	return s
}

func TestShowResets(t *testing.T) {
	m := New(filled("a", "b", "c"))
	m.Search("b")
	m.Show()

	v := m.View()
	assert.True(t, v.Visible)
	assert.Equal(t, "", v.Search)
	assert.Equal(t, 0, v.Selected)
	assert.Len(t, v.Entries, 3)
}

func TestNavigation(t *testing.T) {
	m := New(filled("a", "b", "c"))
	m.Show()

	m.Up()
	assert.Equal(t, 0, m.Selected(), "up at the top is a no-op")

	m.Down()
	m.Down()
	assert.Equal(t, 2, m.Selected())

	m.Down()
	assert.Equal(t, 2, m.Selected(), "down at the bottom is a no-op")

	m.Up()
	assert.Equal(t, 1, m.Selected())
}

func TestNavigation_EmptyView(t *testing.T) {
	m := New(filled())
	m.Show()

	m.Down()
	m.Up()

	assert.Equal(t, None, m.Selected())
	_, ok := m.Activate()
	assert.False(t, ok)
	assert.False(t, m.DeleteSelected())
}

func TestSearchResetsSelection(t *testing.T) {
	m := New(filled("alpha", "beta", "gamma", "delta", "epsilon"))
	m.Show()
	for i := 0; i < 3; i++ {
		m.Down()
	}
	require.Equal(t, 3, m.Selected())

	m.Search("a")
	assert.Equal(t, 0, m.Selected())

	m.Down()
	m.Search("zzz")
	assert.Equal(t, 0, m.index)
	assert.Equal(t, None, m.Selected())
}

func TestDeleteSelected_ClampsToNewEnd(t *testing.T) {
	store := filled("a", "b", "c")
	m := New(store)
	m.Show()
	m.Down()
	m.Down()
	require.Equal(t, 2, m.Selected())

	require.True(t, m.DeleteSelected())

	v := m.View()
	assert.Equal(t, 1, v.Selected)
	assert.Len(t, v.Entries, 2)
	assert.Equal(t, 2, store.Len())
}

func TestDeleteSelected_MiddleKeepsIndex(t *testing.T) {
	m := New(filled("a", "b", "c"))
	m.Show()
	m.Down()

	m.DeleteSelected()

	e, ok := m.Activate()
	require.True(t, ok)
	assert.Equal(t, "c", e.Label())
	assert.Equal(t, 1, m.Selected())
}

func TestDeleteSelected_LastEntryEmptiesView(t *testing.T) {
	m := New(filled("only"))
	m.Show()

	m.DeleteSelected()

	assert.Equal(t, None, m.Selected())
	assert.Empty(t, m.View().Entries)
}

func TestDeleteSelected_WithinFilter(t *testing.T) {
	store := filled("apple", "banana", "apricot", "cherry")
	m := New(store)
	m.Show()
	m.Search("ap")
	m.Down()

	m.DeleteSelected()

	v := m.View()
	require.Len(t, v.Entries, 1)
	assert.Equal(t, "apple", v.Entries[0].Label())
	assert.Equal(t, 0, v.Selected)
	assert.Equal(t, 3, store.Len())
}

func TestViewClampsWhenHistoryShrinks(t *testing.T) {
	store := filled("a", "b", "c")
	m := New(store)
	m.Show()
	m.Down()
	m.Down()

	store.Delete(store.Query("")[2].ID)
	store.Delete(store.Query("")[1].ID)

	assert.Equal(t, 0, m.Selected())
}

func TestView_DoesNotMoveSelection(t *testing.T) {
	store := filled("a", "b", "c", "d")
	m := New(store)
	m.Show()
	m.Down()
	m.Down()
	m.Down()

	store.Delete(store.Query("")[3].ID)
	store.Delete(store.Query("")[2].ID)
	assert.Equal(t, 1, m.View().Selected)
	assert.Equal(t, 3, m.index, "reading the view leaves the index alone")

	// History grows back before the next op: the original row is still
	// selected because nothing clamped it.
	store.Capture(history.Text("z"))
	store.Capture(history.Text("y"))
	assert.Equal(t, 3, m.View().Selected)

	store.Delete(store.Query("")[3].ID)
	store.Delete(store.Query("")[2].ID)
	m.Up()
	assert.Equal(t, 0, m.index, "transitions clamp before moving")
}

func TestApply(t *testing.T) {
	m := New(filled("x1", "y", "x2"))

	v, act := m.Apply(OpShow, "")
	assert.Nil(t, act)
	assert.True(t, v.Visible)

	v, _ = m.Apply(OpSearch, "x")
	assert.Len(t, v.Entries, 2)

	m.Apply(OpDown, "")
	v, act = m.Apply(OpActivate, "")
	require.NotNil(t, act)
	assert.Equal(t, "x2", act.Label())
	assert.False(t, v.Visible, "activating closes the picker")

	m.Apply(OpShow, "")
	v, _ = m.Apply(OpDismiss, "")
	assert.False(t, v.Visible)
}

func TestParseOp(t *testing.T) {
	for op := OpView; op <= OpDismiss; op++ {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOp("jump")
	assert.Error(t, err)
	assert.Equal(t, fmt.Sprintf("op(%d)", 42), Op(42).String())
}
