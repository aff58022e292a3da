package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func lipglossWidth(s string) int { return lipgloss.Width(s) }

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello World", "Hello World"},
		{"control chars", "Hello\x00\x1bWorld", "HelloWorld"},
		{"newline", "Line1\nLine2", "Line1Line2"},
		{"invalid utf8", "Caf\xe9", "Caf"},
		{"nbsp", "a\u00a0b", "a b"},
		{"unicode kept", "日本語 ♪", "日本語 ♪"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clean(tt.input))
		})
	}
}

func TestFit(t *testing.T) {
	assert.Equal(t, "short", fit("short", 10))
	assert.Equal(t, "long…", fit("long title", 5))
	assert.Equal(t, "日本…", fit("日本語のタイトル", 5))
	assert.Empty(t, fit("anything", 0))
}

func TestRow(t *testing.T) {
	assert.Equal(t, "left     right", row("left", "right", 14))
	assert.Equal(t, "lef… right", row("left side", "right", 10))
	assert.Equal(t, "ri…", row("left", "right", 3))
	assert.Equal(t, 20, lipgloss.Width(row("a", "b", 20)))
}
