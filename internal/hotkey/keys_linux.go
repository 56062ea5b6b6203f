package hotkey

import "golang.design/x/hotkey"

// X11 keysym XK_grave.
const keyGrave hotkey.Key = 0x0060

var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"super": hotkey.Mod4,
}
