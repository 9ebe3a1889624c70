//go:build !darwin && !windows && !linux

package paste

// New returns a Simulator that is always unavailable on this platform.
func New() Simulator { return Unavailable{Reason: "unsupported platform"} }
