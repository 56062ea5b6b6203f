// Package hotkey registers configured shortcuts globally and reports press and release events.
package hotkey

import (
	"fmt"
	"slices"
	"strings"
)

// Spec is a parsed shortcut such as "super+grave".
type Spec struct {
	Modifiers []string
	Key       string
}

var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"super":   "super",
	"meta":    "super",
	"cmd":     "super",
	"command": "super",
	"win":     "super",
}

var keyAliases = map[string]string{
	"`":         "grave",
	"backtick":  "grave",
	"backquote": "grave",
	"enter":     "return",
	"esc":       "escape",
}

// ParseSpec parses "mod+mod+key". Modifiers are normalized to ctrl, shift, alt and super.
func ParseSpec(raw string) (Spec, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Spec{}, fmt.Errorf("empty hotkey")
	}
	parts := strings.Split(raw, "+")
	key := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if !knownKey(key) {
		return Spec{}, fmt.Errorf("hotkey %q: unknown key %q", raw, key)
	}

	spec := Spec{Key: key}
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.TrimSpace(part)]
		if !ok {
			return Spec{}, fmt.Errorf("hotkey %q: unknown modifier %q", raw, part)
		}
		if !slices.Contains(spec.Modifiers, mod) {
			spec.Modifiers = append(spec.Modifiers, mod)
		}
	}
	return spec, nil
}

func (s Spec) String() string {
	return strings.Join(append(slices.Clone(s.Modifiers), s.Key), "+")
}

func knownKey(key string) bool {
	if len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9') {
		return true
	}
	_, ok := namedKeys[key]
	return ok || key == "grave"
}
