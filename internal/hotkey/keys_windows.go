package hotkey

import "golang.design/x/hotkey"

// VK_OEM_3.
const keyGrave hotkey.Key = 0xC0

var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModAlt,
	"super": hotkey.ModWin,
}
