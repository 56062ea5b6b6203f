package output

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// Chord is a key plus modifiers tapped through robotgo, e.g. "ctrl+v" or "cmd+v".
type Chord struct {
	Key       string
	Modifiers []string
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
}

// ParseChord parses "mod+mod+key".
func ParseChord(spec string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return Chord{}, fmt.Errorf("paste chord %q has no key", spec)
	}

	chord := Chord{Key: strings.TrimSpace(parts[len(parts)-1])}
	for _, raw := range parts[:len(parts)-1] {
		mod, ok := modifierAliases[strings.TrimSpace(raw)]
		if !ok {
			return Chord{}, fmt.Errorf("paste chord %q: unknown modifier %q", spec, raw)
		}
		chord.Modifiers = append(chord.Modifiers, mod)
	}
	return chord, nil
}

func (c Chord) String() string {
	return strings.Join(append(append([]string(nil), c.Modifiers...), c.Key), "+")
}

func (c Chord) Paste(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args := make([]interface{}, 0, len(c.Modifiers))
	for _, m := range c.Modifiers {
		args = append(args, m)
	}
	if err := robotgo.KeyTap(c.Key, args...); err != nil {
		return fmt.Errorf("tap %s: %w", c, err)
	}
	return nil
}
