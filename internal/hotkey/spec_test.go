package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{in: "super+grave", want: Spec{Modifiers: []string{"super"}, Key: "grave"}},
		{in: "Alt+`", want: Spec{Modifiers: []string{"alt"}, Key: "grave"}},
		{in: "ctrl+shift+a", want: Spec{Modifiers: []string{"ctrl", "shift"}, Key: "a"}},
		{in: "control+ctrl+space", want: Spec{Modifiers: []string{"ctrl"}, Key: "space"}},
		{in: "cmd+option+esc", want: Spec{Modifiers: []string{"super", "alt"}, Key: "escape"}},
		{in: "f9", want: Spec{Key: "f9"}},
		{in: "ctrl+7", want: Spec{Modifiers: []string{"ctrl"}, Key: "7"}},
		{in: "", wantErr: true},
		{in: "ctrl+", wantErr: true},
		{in: "hyper+a", wantErr: true},
		{in: "ctrl+pagedown", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseSpec(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestSpecString(t *testing.T) {
	spec, err := ParseSpec("Shift+Ctrl+Grave")
	require.NoError(t, err)
	require.Equal(t, "shift+ctrl+grave", spec.String())
}

func TestSpecBinding(t *testing.T) {
	for _, raw := range []string{"super+grave", "alt+grave", "ctrl+grave", "ctrl+shift+z", "f12", "ctrl+0"} {
		spec, err := ParseSpec(raw)
		require.NoError(t, err)
		mods, _, err := spec.binding()
		require.NoError(t, err, raw)
		require.Len(t, mods, len(spec.Modifiers))
	}

	_, key, err := Spec{Key: "grave"}.binding()
	require.NoError(t, err)
	require.Equal(t, keyGrave, key)

	_, _, err = Spec{Key: "pagedown"}.binding()
	require.Error(t, err)
}
