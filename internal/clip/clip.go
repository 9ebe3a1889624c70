// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go    Linux via golang.design/x/clipboard, token from content comparison
//	clip_headless.go in-process clipboard for headless hosts, other platforms and tests
package clip

import (
	"errors"

	"go.klb.dev/stash/internal/history"
)

// ErrEmpty is returned when asked to write content with no payload.
var ErrEmpty = errors.New("clip: empty content")

// Token identifies a clipboard generation. It changes (compares unequal) on
// every mutation of the shared clipboard, including this process's own
// writes. Values are only meaningful when compared to earlier values from
// the same Backend.
type Token uint64

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeToken returns the current clipboard generation.
	ChangeToken() Token

	// ReadText returns the plain-text representation, if any.
	ReadText() (string, bool)

	// ReadImage returns the PNG representation, if any.
	ReadImage() ([]byte, bool)

	// Write replaces the clipboard contents with c.
	Write(c history.Content) error

	// Close releases any resources held by the backend.
	Close()
}

func checkWritable(c history.Content) error {
	if c.Kind() == 0 {
		return ErrEmpty
	}
	return nil
}
