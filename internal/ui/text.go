package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// clean drops control characters and invalid UTF-8 from tag text so bad
// metadata cannot break the terminal.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size <= 1:
		case r == '\u00a0':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fit truncates s to width cells, ending with an ellipsis when cut.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// row places left and right on one line of exactly width cells, cutting
// left when they do not fit.
func row(left, right string, width int) string {
	rw := lipgloss.Width(right)
	avail := width - rw - 1
	if avail <= 0 {
		return fit(right, width)
	}
	if lipgloss.Width(left) > avail {
		left = fit(left, avail)
	}
	gap := width - lipgloss.Width(left) - rw
	return left + strings.Repeat(" ", max(gap, 1)) + right
}
