// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Track operations
	OpTrackOpen   Op = "open track"
	OpTrackProbe  Op = "probe track"
	OpTrackLoad   Op = "load track"
	OpTrackDecode Op = "decode track"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpVolume        Op = "set volume"

	// Output operations
	OpOutputOpen        Op = "open audio output"
	OpOutputEnumerate   Op = "list audio devices"
	OpOutputReconfigure Op = "reconfigure audio output"

	// Integrations
	OpMediaControls Op = "start media controls"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// FormatText is FormatWith for errors that already crossed the bus as text.
func FormatText(op Op, context, msg string) string {
	if msg == "" {
		return ""
	}
	if op == "" {
		op = OpPlaybackStart
	}
	if context == "" {
		return fmt.Sprintf("Failed to %s: %s", op, msg)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, msg)
}
