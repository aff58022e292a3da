package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/output"
)

type recorder struct {
	sent []bus.Message
}

func (r *recorder) publish(msg bus.Message) { r.sent = append(r.sent, msg) }

func newTestModel() (Model, *recorder) {
	r := &recorder{}
	return NewModel(r.publish), r
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd != nil {
		cmd()
	}
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	m = update(t, m, BusMsg{bus.PlaybackTrackLoaded{Path: "/music/a.flac", DurationMS: 20000, SampleRate: 44100, Channels: 2}})
	return update(t, m, BusMsg{bus.PlaybackProgress{ElapsedMS: 10000, TotalMS: 20000}})
}

func TestKeys_PublishRequests(t *testing.T) {
	tests := []struct {
		key  string
		want bus.Message
	}{
		{" ", bus.PlaybackToggle{}},
		{"s", bus.PlaybackStop{}},
		{"n", bus.PlaybackNext{}},
		{"p", bus.PlaybackPrevious{}},
		{"right", bus.PlaybackSeek{Fraction: 0.75}},
		{"left", bus.PlaybackSeek{Fraction: 0.25}},
		{"0", bus.PlaybackSeek{Fraction: 0}},
		{"-", bus.PlaybackSetVolume{Level: 0.95}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, r := newTestModel()
			m = loaded(t, m)

			update(t, m, key(tt.key))

			assert.Equal(t, []bus.Message{tt.want}, r.sent)
		})
	}
}

func TestKeys_SeekNeedsDuration(t *testing.T) {
	m, r := newTestModel()
	update(t, m, key("right"))
	assert.Empty(t, r.sent)
}

func TestKeys_VolumeClampsAndMutes(t *testing.T) {
	m, r := newTestModel()

	update(t, m, key("+"))
	assert.Equal(t, []bus.Message{bus.PlaybackSetVolume{Level: 1}}, r.sent)

	r.sent = nil
	m = update(t, m, BusMsg{bus.PlaybackSetVolume{Level: 0.5}})
	m = update(t, m, key("m"))
	assert.Equal(t, []bus.Message{bus.PlaybackSetVolume{Level: 0}}, r.sent)

	m = update(t, m, BusMsg{bus.PlaybackSetVolume{Level: 0}})
	r.sent = nil
	update(t, m, key("m"))
	assert.Equal(t, []bus.Message{bus.PlaybackSetVolume{Level: 0.5}}, r.sent)
}

func TestKeys_Quit(t *testing.T) {
	m, r := newTestModel()

	next, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(Model).Quitting())
	assert.Empty(t, r.sent)
	assert.Empty(t, next.View())
}

func TestApply(t *testing.T) {
	m, _ := newTestModel()
	m = loaded(t, m)
	m = update(t, m, BusMsg{bus.MetadataUpdated{Path: "/music/a.flac", Title: "Song", Artist: "Band", Album: "Record"}})
	m = update(t, m, BusMsg{bus.MetadataUpdated{Path: "/music/other.flac", Title: "Wrong"}})
	m = update(t, m, BusMsg{bus.PlaybackStateChanged{State: bus.StatePlaying}})
	m = update(t, m, BusMsg{bus.AudioDevicesDetected{Backend: "speaker", Devices: []output.DeviceInfo{{Name: "default", Default: true}}}})
	m = update(t, m, BusMsg{bus.AudioStreamRebuilt{Device: "default", Config: output.StreamConfig{SampleRate: 44100, Channels: 2}, Exact: true}})
	m = update(t, m, BusMsg{bus.PlaylistChanged{Paths: []string{"/a", "/b", "/c"}, Index: 1}})

	s := m.State()
	assert.Equal(t, bus.StatePlaying, s.Playback)
	assert.Equal(t, "Song", s.Title)
	assert.Equal(t, uint64(10000), s.ElapsedMS)
	assert.Equal(t, "speaker", s.Backend)
	assert.Equal(t, "44100Hz/2ch", s.Output)
	assert.Equal(t, 1, s.QueueIndex)
	assert.Equal(t, 3, s.QueueLen)

	m = update(t, m, BusMsg{bus.PlaybackStateChanged{State: bus.StateStopped}})
	assert.Zero(t, m.State().ElapsedMS)
}

func TestApply_ErrorClearedByPlayback(t *testing.T) {
	m, _ := newTestModel()

	m = update(t, m, BusMsg{bus.PlaybackError{Op: "open track", Path: "/music/gone.flac", Err: "no such file"}})
	assert.Equal(t, "Failed to open track 'gone.flac': no such file", m.State().Error)

	m = update(t, m, BusMsg{bus.PlaybackStateChanged{State: bus.StatePlaying}})
	assert.Empty(t, m.State().Error)
}

func TestView(t *testing.T) {
	m, _ := newTestModel()
	assert.Contains(t, m.View(), "Nothing loaded")

	m = loaded(t, m)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 10})
	m = update(t, m, BusMsg{bus.MetadataUpdated{Path: "/music/a.flac", Title: "Song", Artist: "Band"}})
	m = update(t, m, BusMsg{bus.PlaybackStateChanged{State: bus.StateBuffering}})
	m = update(t, m, BusMsg{bus.PlaybackBuffering{BufferedMS: 1500}})
	m = update(t, m, BusMsg{bus.PlaylistChanged{Paths: []string{"/a", "/b"}, Index: 0}})

	view := m.View()
	for _, want := range []string{"Song", "Band", "0:10 / 0:20", "44.1 kHz", "Buffering, 0:01 ready", "1st of 2"} {
		assert.Contains(t, view, want)
	}

	m = update(t, m, key("?"))
	assert.Contains(t, m.View(), "Play/pause")
	for _, line := range strings.Split(m.View(), "\n") {
		assert.LessOrEqual(t, lipglossWidth(line), 100)
	}
}
