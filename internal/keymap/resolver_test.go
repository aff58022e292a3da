package keymap

import (
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := Default()

	tests := []struct {
		key      string
		expected Action
	}{
		{"q", ActionQuit},
		{"ctrl+c", ActionQuit},
		{" ", ActionPlayPause},
		{"right", ActionSeekForward},
		{"left", ActionSeekBack},
		{"+", ActionVolumeUp},
		{"unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := r.Resolve(tt.key); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestResolver_KeysFor(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionStop, []string{"s"}, "Stop", "playback"},
		{ActionStop, []string{"s", "x"}, "Stop", "global"},
	})

	keys := r.KeysFor(ActionStop)
	if len(keys) != 2 || keys[0] != "s" || keys[1] != "x" {
		t.Errorf("KeysFor(stop) = %v, want [s x]", keys)
	}
	if keys := r.KeysFor(ActionMute); len(keys) != 0 {
		t.Errorf("KeysFor(mute) = %v, want none", keys)
	}
}

func TestAll_NoKeyBoundTwice(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range All {
		if len(b.Keys) == 0 {
			t.Errorf("%s has no keys", b.Action)
		}
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %s and %s", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}
