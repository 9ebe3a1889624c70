//go:build !darwin && !windows && !linux

package clip

import "log/slog"

// New returns an in-process clipboard; this platform has no system backend.
func New() Backend {
	slog.Warn("no system clipboard on this platform, running headless")
	return NewMemory()
}
