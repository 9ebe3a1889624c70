//go:build windows

package paste

// #cgo LDFLAGS: -luser32
// #include <windows.h>
//
// static void stash_ctrl_v() {
//     keybd_event(VK_CONTROL, 0, 0, 0);
//     keybd_event('V', 0, 0, 0);
//     keybd_event('V', 0, KEYEVENTF_KEYUP, 0);
//     keybd_event(VK_CONTROL, 0, KEYEVENTF_KEYUP, 0);
// }
import "C"

type keybd struct{}

// New returns the keybd_event simulator.
func New() Simulator { return keybd{} }

func (keybd) Name() string { return "keybd_event" }

func (keybd) Simulate() error {
	C.stash_ctrl_v()
	return nil
}
