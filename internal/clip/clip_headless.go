package clip

import (
	"bytes"
	"sync"

	"go.klb.dev/stash/internal/history"
)

// Memory is an in-process clipboard. It stands in for the system clipboard
// on hosts without a display server, and in tests.
type Memory struct {
	mu    sync.Mutex
	token Token
	text  string
	image []byte
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "headless (in-memory)" }

func (m *Memory) ChangeToken() Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Memory) ReadText() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.text != ""
}

func (m *Memory) ReadImage() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.image), len(m.image) > 0
}

// Write replaces the contents and advances the token.
func (m *Memory) Write(c history.Content) error {
	if err := checkWritable(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image = "", nil
	if s, ok := c.Text(); ok {
		m.text = s
	}
	if img, ok := c.Image(); ok {
		m.image = bytes.Clone(img)
	}
	m.token++
	return nil
}

// SetBoth places a text and an image representation on the clipboard in a
// single generation, the way some applications publish a copy.
func (m *Memory) SetBoth(text string, png []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image = text, bytes.Clone(png)
	m.token++
}

func (m *Memory) Close() {}
