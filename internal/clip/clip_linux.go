//go:build linux

package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"

	"go.klb.dev/stash/internal/history"
)

// linuxBackend has no native change counter, so ChangeToken reads both
// formats and advances its own counter when either differs from the last
// observation. Re-copying identical content is therefore invisible.
type linuxBackend struct {
	mu       sync.Mutex
	token    Token
	lastText []byte
	lastImg  []byte
}

// New returns the Linux clipboard backend, or an in-memory backend if the
// display environment is unavailable (e.g. a headless server without X11
// or Wayland). clipboard.Init is called here rather than in init() so that
// CLI sub-commands that never construct a Backend don't trigger the warning.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	b := &linuxBackend{
		lastText: clipboard.Read(clipboard.FmtText),
		lastImg:  clipboard.Read(clipboard.FmtImage),
	}
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (poll)" }

func (b *linuxBackend) ChangeToken() Token {
	text := clipboard.Read(clipboard.FmtText)
	img := clipboard.Read(clipboard.FmtImage)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg) {
		b.lastText = text
		b.lastImg = img
		b.token++
	}
	return b.token
}

func (b *linuxBackend) ReadText() (string, bool) {
	text := clipboard.Read(clipboard.FmtText)
	return string(text), len(text) > 0
}

func (b *linuxBackend) ReadImage() ([]byte, bool) {
	img := clipboard.Read(clipboard.FmtImage)
	return img, len(img) > 0
}

func (b *linuxBackend) Write(c history.Content) error {
	if err := checkWritable(c); err != nil {
		return err
	}
	data := c.Bytes()
	switch c.MIME() {
	case history.MIMEText:
		clipboard.Write(clipboard.FmtText, data)
	case history.MIMEImage:
		clipboard.Write(clipboard.FmtImage, data)
	default:
		return fmt.Errorf("unsupported MIME type: %s", c.MIME())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastText, b.lastImg = nil, nil
	if c.Kind() == history.KindText {
		b.lastText = data
	} else {
		b.lastImg = data
	}
	b.token++
	return nil
}

func (b *linuxBackend) Close() {}
