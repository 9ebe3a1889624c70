//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger stash_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/stash/internal/history"
)

// darwinBackend uses NSPasteboard's changeCount as the token; the pasteboard
// bumps it on every write, ours included.
type darwinBackend struct{}

// New returns the macOS clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) ChangeToken() Token { return Token(C.stash_changeCount()) }

func (b *darwinBackend) ReadText() (string, bool) {
	text := clipboard.Read(clipboard.FmtText)
	return string(text), len(text) > 0
}

func (b *darwinBackend) ReadImage() ([]byte, bool) {
	img := clipboard.Read(clipboard.FmtImage)
	return img, len(img) > 0
}

func (b *darwinBackend) Write(c history.Content) error {
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

func (b *darwinBackend) Close() {}
