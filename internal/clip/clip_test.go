package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/stash/internal/history"
)

func TestMemory_TokenAdvancesOnEveryWrite(t *testing.T) {
	m := NewMemory()
	t0 := m.ChangeToken()

	require.NoError(t, m.Write(history.Text("a")))
	t1 := m.ChangeToken()
	require.NoError(t, m.Write(history.Text("a")))
	t2 := m.ChangeToken()

	assert.NotEqual(t, t0, t1)
	assert.NotEqual(t, t1, t2, "identical content still advances the token")
	assert.Equal(t, t2, m.ChangeToken(), "reading does not advance the token")
}

func TestMemory_WriteReplacesRepresentations(t *testing.T) {
	m := NewMemory()
	m.SetBoth("caption", []byte{1, 2})

	s, ok := m.ReadText()
	assert.True(t, ok)
	assert.Equal(t, "caption", s)
	_, ok = m.ReadImage()
	assert.True(t, ok)

	require.NoError(t, m.Write(history.Image([]byte{9})))
	_, ok = m.ReadText()
	assert.False(t, ok)
	img, ok := m.ReadImage()
	assert.True(t, ok)
	assert.Equal(t, []byte{9}, img)
}

func TestMemory_RejectsZeroContent(t *testing.T) {
	m := NewMemory()
	assert.ErrorIs(t, m.Write(history.Content{}), ErrEmpty)
	assert.Equal(t, Token(0), m.ChangeToken())
}
