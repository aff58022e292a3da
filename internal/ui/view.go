package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/keymap"
)

// State holds everything the status view shows.
type State struct {
	Playback bus.PlaybackState

	Path   string
	Title  string
	Artist string
	Album  string

	ElapsedMS  uint64
	TotalMS    uint64
	BufferedMS uint64

	SampleRate int
	Channels   int

	Backend string
	Device  string
	Output  string // applied stream config, e.g. "48000Hz/2ch"
	Exact   bool

	QueueIndex int
	QueueLen   int
	Volume     float64

	Status string // integration and cast notices
	Error  string
}

const (
	playSymbol   = "▶"
	pauseSymbol  = "⏸"
	stopSymbol   = "■"
	bufferSymbol = "…"
)

// Render draws the status panel for the given terminal width.
func Render(s State, width int) string {
	inner := max(width-4, 10) // border and padding

	lines := []string{
		renderTrack(s, inner),
		renderProgress(s, inner),
		metaStyle.Render(row(renderOutput(s), renderQueue(s), inner)),
	}
	switch {
	case s.Error != "":
		lines = append(lines, errorStyle.Render(fit(s.Error, inner)))
	case s.Playback == bus.StateBuffering:
		lines = append(lines, bufferStyle.Render(fit("Buffering, "+formatMS(s.BufferedMS)+" ready", inner)))
	case s.Status != "":
		lines = append(lines, artistStyle.Render(fit(s.Status, inner)))
	default:
		lines = append(lines, "")
	}
	return panelStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func renderTrack(s State, width int) string {
	if s.Path == "" {
		return artistStyle.Render(fit("Nothing loaded", width))
	}
	title := clean(s.Title)
	if title == "" {
		title = filepath.Base(s.Path)
	}
	var info []string
	if a := clean(s.Artist); a != "" {
		info = append(info, a)
	}
	if a := clean(s.Album); a != "" {
		info = append(info, a)
	}
	if len(info) == 0 {
		return titleStyle.Render(fit(title, width))
	}

	// Title wins over artist and album.
	title = fit(title, width)
	rest := width - lipgloss.Width(title) - 3
	if rest < 5 {
		return titleStyle.Render(title)
	}
	return titleStyle.Render(title) + "   " + artistStyle.Render(fit(strings.Join(info, " · "), rest))
}

func renderProgress(s State, width int) string {
	status := stopSymbol
	switch s.Playback {
	case bus.StatePlaying:
		status = playSymbol
	case bus.StatePaused:
		status = pauseSymbol
	case bus.StateBuffering:
		status = bufferSymbol
	}
	times := formatMS(s.ElapsedMS) + " / " + formatMS(s.TotalMS)
	vol := fmt.Sprintf("vol %3d%%", int(s.Volume*100+0.5))

	barWidth := width - lipgloss.Width(status) - len(times) - len(vol) - 6
	if barWidth < 5 {
		return status + "  " + times
	}
	var ratio float64
	if s.TotalMS > 0 {
		ratio = min(float64(s.ElapsedMS)/float64(s.TotalMS), 1)
	}
	filled := int(float64(barWidth) * ratio)
	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", barWidth-filled))

	return status + "  " + bar + "  " + times + "  " + metaStyle.Render(vol)
}

func renderOutput(s State) string {
	var parts []string
	if s.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%s %dch", humanize.SIWithDigits(float64(s.SampleRate), 1, "Hz"), s.Channels))
	}
	if s.Device != "" || s.Backend != "" {
		dev := s.Device
		if dev == "" {
			dev = "default"
		}
		out := s.Backend + ":" + dev
		if s.Output != "" {
			out += " " + s.Output
			if !s.Exact {
				out += " (nearest)"
			}
		}
		parts = append(parts, "→ "+out)
	}
	return strings.Join(parts, " ")
}

func renderQueue(s State) string {
	if s.QueueLen == 0 || s.QueueIndex < 0 {
		return ""
	}
	return fmt.Sprintf("%s of %s", humanize.Ordinal(s.QueueIndex+1), humanize.Comma(int64(s.QueueLen)))
}

// renderHelp lists the playback bindings on one or more lines.
func renderHelp(keys []keymap.Binding, width int) string {
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, b := range keys {
		key := b.Keys[0]
		if key == " " {
			key = "space"
		}
		entry := key + " " + b.Description
		if lineWidth > 0 && lineWidth+len(entry)+3 > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString("   ")
			lineWidth += 3
		}
		line.WriteString(helpKeyStyle.Render(key) + " " + helpDescStyle.Render(b.Description))
		lineWidth += len(entry)
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func formatMS(ms uint64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
