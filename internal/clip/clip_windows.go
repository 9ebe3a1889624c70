//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
//
// static DWORD stash_sequence() {
//     return GetClipboardSequenceNumber();
// }
import "C"

import (
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/stash/internal/history"
)

// windowsBackend uses the clipboard sequence number as the token.
type windowsBackend struct{}

// New returns the Windows clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	return &windowsBackend{}
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func (b *windowsBackend) ChangeToken() Token { return Token(C.stash_sequence()) }

func (b *windowsBackend) ReadText() (string, bool) {
	text := clipboard.Read(clipboard.FmtText)
	return string(text), len(text) > 0
}

func (b *windowsBackend) ReadImage() ([]byte, bool) {
	img := clipboard.Read(clipboard.FmtImage)
	return img, len(img) > 0
}

func (b *windowsBackend) Write(c history.Content) error {
	if err := checkWritable(c); err != nil {
		return err
	}
	switch c.MIME() {
	case history.MIMEText:
		clipboard.Write(clipboard.FmtText, c.Bytes())
	case history.MIMEImage:
		clipboard.Write(clipboard.FmtImage, c.Bytes())
	default:
		return fmt.Errorf("unsupported MIME type: %s", c.MIME())
	}
	return nil
}

func (b *windowsBackend) Close() {}
