//go:build darwin

package paste

// #cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics
// #include <ApplicationServices/ApplicationServices.h>
//
// static int stash_trusted() {
//     return AXIsProcessTrusted() ? 1 : 0;
// }
//
// static int stash_cmd_v() {
//     CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
//     // Key code 9 = 'V'
//     CGEventRef down = CGEventCreateKeyboardEvent(src, (CGKeyCode)9, true);
//     CGEventRef up = CGEventCreateKeyboardEvent(src, (CGKeyCode)9, false);
//     if (down == NULL || up == NULL) {
//         if (down) CFRelease(down);
//         if (up) CFRelease(up);
//         if (src) CFRelease(src);
//         return 0;
//     }
//     CGEventSetFlags(down, kCGEventFlagMaskCommand);
//     CGEventSetFlags(up, kCGEventFlagMaskCommand);
//     CGEventPost(kCGHIDEventTap, down);
//     CGEventPost(kCGHIDEventTap, up);
//     CFRelease(down);
//     CFRelease(up);
//     if (src) CFRelease(src);
//     return 1;
// }
import "C"

import "errors"

type cgEvent struct{}

// New returns the CGEvent simulator. Posting events needs the Accessibility
// permission; without it Simulate reports ErrUnavailable.
func New() Simulator { return cgEvent{} }

func (cgEvent) Name() string { return "CGEvent" }

func (cgEvent) Simulate() error {
	if C.stash_trusted() == 0 {
		return errors.Join(ErrUnavailable, errors.New("accessibility permission not granted"))
	}
	if C.stash_cmd_v() == 0 {
		return errors.New("CGEvent: could not create keyboard events")
	}
	return nil
}
