package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinding(t *testing.T) {
	tests := []struct {
		in   string
		mods []string
		key  string
	}{
		{"Ctrl+Shift+R", []string{"ctrl", "shift"}, "r"},
		{"shift + control + space", []string{"ctrl", "shift"}, "space"},
		{"cmd+option+enter", []string{"alt", "super"}, "return"},
		{"F9", nil, "f9"},
		{"ctrl+ctrl+esc", []string{"ctrl"}, "escape"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, err := ParseBinding(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.mods, b.Modifiers)
			assert.Equal(t, tt.key, b.Key)
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	tests := map[string]string{
		"":            "empty hotkey",
		"ctrl+shift":  "no key specified",
		"ctrl+a+b":    "multiple keys",
		"ctrl+banana": "unknown key",
		"ctrl++r":     "malformed hotkey",
	}
	for in, want := range tests {
		_, err := ParseBinding(in)
		assert.ErrorContains(t, err, want, in)
	}
}

func TestBindingString(t *testing.T) {
	b, err := ParseBinding("Shift+Ctrl+R")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+r", b.String())
	assert.Len(t, b.modifiers(), 2)
}
