// Package paste simulates the platform paste keystroke (Cmd+V / Ctrl+V) in
// the frontmost application. Build constraints select the implementation:
//
//	paste_darwin.go  CGEvent, requires the Accessibility permission
//	paste_windows.go keybd_event
//	paste_linux.go   xdotool (X11) or wtype (Wayland), whichever is installed
//	paste_other.go   unavailable
package paste

import "errors"

// ErrUnavailable means this host cannot simulate a paste: no mechanism is
// installed, or the OS denied permission.
var ErrUnavailable = errors.New("paste simulation unavailable")

// Simulator sends one paste keystroke. Nothing about the target application
// is reported back.
type Simulator interface {
	Name() string
	Simulate() error
}

// Unavailable is a Simulator that always fails with ErrUnavailable.
type Unavailable struct{ Reason string }

func (u Unavailable) Name() string { return "unavailable" }

func (u Unavailable) Simulate() error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return errors.Join(ErrUnavailable, errors.New(u.Reason))
}

// Func adapts a plain function to Simulator.
type Func func() error

func (f Func) Name() string    { return "func" }
func (f Func) Simulate() error { return f() }
