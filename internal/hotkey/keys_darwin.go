package hotkey

import "golang.design/x/hotkey"

// kVK_ANSI_Grave.
const keyGrave hotkey.Key = 0x32

var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModOption,
	"super": hotkey.ModCmd,
}
