//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpTrackLoad,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpTrackLoad,
			err:      errors.New("file not found"),
			expected: "Failed to load track: file not found",
		},
		{
			name:     "output operation",
			op:       OpOutputOpen,
			err:      errors.New("device busy"),
			expected: "Failed to open audio output: device busy",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpTrackOpen,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpTrackOpen,
			context:  "song.mp3",
			err:      errors.New("permission denied"),
			expected: "Failed to open track 'song.mp3': permission denied",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpTrackOpen,
			context:  "",
			err:      errors.New("permission denied"),
			expected: "Failed to open track: permission denied",
		},
		{
			name:     "probe with filename context",
			op:       OpTrackProbe,
			context:  "album.flac",
			err:      errors.New("unsupported format"),
			expected: "Failed to probe track 'album.flac': unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		msg      string
		expected string
	}{
		{"empty message", OpTrackLoad, "a.mp3", "", ""},
		{"with context", OpTrackLoad, "a.mp3", "truncated", "Failed to load track 'a.mp3': truncated"},
		{"without context", OpOutputOpen, "", "busy", "Failed to open audio output: busy"},
		{"unknown op", "", "", "boom", "Failed to start playback: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatText(tt.op, tt.context, tt.msg)
			if result != tt.expected {
				t.Errorf("FormatText() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpTrackOpen, OpTrackProbe, OpTrackLoad, OpTrackDecode,
		OpPlaybackStart, OpPlaybackSeek, OpVolume,
		OpOutputOpen, OpOutputEnumerate, OpOutputReconfigure,
		OpMediaControls,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
