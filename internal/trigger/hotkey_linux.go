//go:build x11

package trigger

import "golang.design/x/hotkey"

// X11 maps Alt to Mod1 and Super to Mod4 on every common keyboard layout.
var platformMods = map[Modifier]hotkey.Modifier{
	ModCtrl:  hotkey.ModCtrl,
	ModShift: hotkey.ModShift,
	ModAlt:   hotkey.Mod1,
	ModSuper: hotkey.Mod4,
}
