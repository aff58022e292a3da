// Package ui is the terminal front end: a bubbletea program that renders
// the bus state and publishes the user's requests.
package ui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/keymap"
	"github.com/llehouerou/riptide/internal/output"
)

const (
	seekStepMS = 5000
	volumeStep = 0.05
)

// BusMsg wraps a bus message delivered to the program.
type BusMsg struct {
	Msg bus.Message
}

// Model is the bubbletea model.
type Model struct {
	keys    *keymap.Resolver
	publish func(bus.Message)

	state    State
	width    int
	help     bool
	muted    float64 // volume before mute, 0 when not muted
	quitting bool
}

// NewModel creates the model. publish is called for every request.
func NewModel(publish func(bus.Message)) Model {
	return Model{
		keys:    keymap.Default(),
		publish: publish,
		state:   State{Volume: 1, QueueIndex: -1},
		width:   80,
	}
}

// State returns what the view currently shows.
func (m Model) State() State { return m.state }

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool { return m.quitting }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case BusMsg:
		m.apply(msg.Msg)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	s := m.state
	switch m.keys.Resolve(key) {
	case keymap.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case keymap.ActionHelp:
		m.help = !m.help
	case keymap.ActionPlayPause:
		return m, m.send(bus.PlaybackToggle{})
	case keymap.ActionStop:
		return m, m.send(bus.PlaybackStop{})
	case keymap.ActionNextTrack:
		return m, m.send(bus.PlaybackNext{})
	case keymap.ActionPrevTrack:
		return m, m.send(bus.PlaybackPrevious{})
	case keymap.ActionSeekForward:
		return m, m.seek(int64(s.ElapsedMS) + seekStepMS)
	case keymap.ActionSeekBack:
		return m, m.seek(int64(s.ElapsedMS) - seekStepMS)
	case keymap.ActionSeekStart:
		return m, m.seek(0)
	case keymap.ActionVolumeUp:
		return m, m.setVolume(s.Volume + volumeStep)
	case keymap.ActionVolumeDown:
		return m, m.setVolume(s.Volume - volumeStep)
	case keymap.ActionMute:
		if m.muted > 0 {
			level := m.muted
			m.muted = 0
			return m, m.setVolume(level)
		}
		if s.Volume > 0 {
			m.muted = s.Volume
			return m, m.setVolume(0)
		}
	}
	return m, nil
}

func (m Model) seek(ms int64) tea.Cmd {
	total := m.state.TotalMS
	if total == 0 {
		return nil
	}
	ms = min(max(ms, 0), int64(total))
	return m.send(bus.PlaybackSeek{Fraction: float32(float64(ms) / float64(total))})
}

func (m Model) setVolume(level float64) tea.Cmd {
	return m.send(bus.PlaybackSetVolume{Level: float32(output.ClampLevel(level))})
}

func (m Model) send(msg bus.Message) tea.Cmd {
	return func() tea.Msg {
		m.publish(msg)
		return nil
	}
}

// apply folds a bus message into the view state.
func (m *Model) apply(msg bus.Message) {
	s := &m.state
	switch msg := msg.(type) {
	case bus.PlaybackStateChanged:
		s.Playback = msg.State
		if msg.State == bus.StatePlaying {
			s.Error = ""
		}
		if msg.State == bus.StateStopped {
			s.ElapsedMS = 0
		}
	case bus.PlaybackTrackLoaded:
		if msg.Path != s.Path {
			s.Title, s.Artist, s.Album = "", "", ""
		}
		s.Path = msg.Path
		s.TotalMS = msg.DurationMS
		s.ElapsedMS = 0
		s.SampleRate = msg.SampleRate
		s.Channels = msg.Channels
		s.Error = ""
	case bus.MetadataUpdated:
		if msg.Path == s.Path {
			s.Title, s.Artist, s.Album = msg.Title, msg.Artist, msg.Album
		}
	case bus.PlaybackProgress:
		s.ElapsedMS = msg.ElapsedMS
		if msg.TotalMS > 0 {
			s.TotalMS = msg.TotalMS
		}
	case bus.PlaybackBuffering:
		s.BufferedMS = msg.BufferedMS
	case bus.PlaybackError:
		name := ""
		if msg.Path != "" {
			name = filepath.Base(msg.Path)
		}
		s.Error = errmsg.FormatText(errmsg.Op(msg.Op), name, msg.Err)
	case bus.PlaybackSetVolume:
		s.Volume = output.ClampLevel(float64(msg.Level))
		if s.Volume > 0 {
			m.muted = 0
		}
	case bus.AudioDevicesDetected:
		s.Backend = msg.Backend
		for _, d := range msg.Devices {
			if d.Default && s.Device == "" {
				s.Device = d.Name
			}
		}
	case bus.AudioStreamRebuilt:
		s.Device = msg.Device
		s.Output = msg.Config.String()
		s.Exact = msg.Exact
	case bus.PlaylistChanged:
		s.QueueIndex = msg.Index
		s.QueueLen = len(msg.Paths)
	case bus.IntegrationStatus:
		s.Status = msg.Service + ": " + msg.Status
	case bus.CastDeviceSelected:
		s.Status = "Cast target: " + msg.Name
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	view := Render(m.state, m.width)
	if m.help {
		view += "\n" + renderHelp(keymap.All, max(m.width-2, 20))
	}
	return view
}
