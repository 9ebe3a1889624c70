//go:build darwin || windows || (linux && x11)

// On Linux the binder talks to X11, and golang.design/x/hotkey panics at
// init when no display is reachable, so it is only linked with -tags x11.

package trigger

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/hotkey"
)

var keys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace, "return": hotkey.KeyReturn, "enter": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape, "esc": hotkey.KeyEscape, "tab": hotkey.KeyTab,
}

// System binds hotkeys through the OS. On macOS the process must have been
// started through mainthread.Init.
type System struct{}

// NewSystem returns the OS hotkey binder.
func NewSystem() Binder { return System{} }

func (System) Bind(c Combo, fn func()) (Binding, error) {
	key, ok := keys[c.Key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", c.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(c.Mods))
	for _, m := range c.Mods {
		hm, ok := platformMods[m]
		if !ok {
			return nil, fmt.Errorf("modifier %q not available on this platform", m)
		}
		mods = append(mods, hm)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b := &systemBinding{hk: hk, done: make(chan struct{})}
	go b.listen(c, fn)
	return b, nil
}

type systemBinding struct {
	hk   *hotkey.Hotkey
	done chan struct{}
	once sync.Once
}

func (b *systemBinding) listen(c Combo, fn func()) {
	for {
		select {
		case <-b.done:
			return
		case _, ok := <-b.hk.Keydown():
			if !ok {
				return
			}
			slog.Debug("hotkey pressed", "hotkey", c)
			fn()
		}
	}
}

func (b *systemBinding) Unbind() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.hk.Unregister()
	})
	return err
}
