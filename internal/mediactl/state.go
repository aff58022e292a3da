// Package mediactl exposes playback to the operating system's media
// controls. It only ever sees the bus: state is derived from playback
// notifications and control requests are published back as Playback
// messages.
package mediactl

import (
	"sync"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/output"
)

// ControlState is the minimal projection the OS controls need.
type ControlState struct {
	Playing   bool
	ElapsedMS uint64
	TotalMS   uint64
}

// Track describes the current track for display.
type Track struct {
	Path    string
	Title   string
	Artist  string
	Album   string
	ArtPath string
}

// Snapshot is everything the bridge reports, copied out of the Tracker.
type Snapshot struct {
	ControlState
	State       bus.PlaybackState
	Track       Track
	HasTracks   bool
	HasNext     bool
	HasPrevious bool
	Volume      float64
}

// Change flags what a message changed, so the bridge only signals the
// properties that moved.
type Change uint8

const (
	ChangeStatus Change = 1 << iota
	ChangeMetadata
	ChangeOptions
	ChangeVolume
	ChangeSeeked
)

// Tracker maintains the Snapshot. Apply is called from the actor; reads
// come from the D-Bus goroutines.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker returns a tracker for a stopped player at full volume.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Volume: 1}}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// ControlState returns the current projection.
func (t *Tracker) ControlState() ControlState {
	return t.Snapshot().ControlState
}

// Apply folds msg into the state.
func (t *Tracker) Apply(msg bus.Message) Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	switch m := msg.(type) {
	case bus.PlaybackStateChanged:
		if m.State == s.State {
			return 0
		}
		s.State = m.State
		s.Playing = m.State == bus.StatePlaying || m.State == bus.StateBuffering
		if m.State == bus.StateStopped {
			s.ElapsedMS = 0
		}
		return ChangeStatus

	case bus.PlaybackTrackLoaded:
		s.ElapsedMS = 0
		s.TotalMS = m.DurationMS
		if s.Track.Path != m.Path {
			s.Track = Track{Path: m.Path, ArtPath: FindAlbumArt(m.Path)}
		}
		return ChangeMetadata

	case bus.MetadataUpdated:
		if m.Path != s.Track.Path {
			return 0
		}
		s.Track.Title = m.Title
		s.Track.Artist = m.Artist
		s.Track.Album = m.Album
		return ChangeMetadata

	case bus.PlaybackProgress:
		// A jump larger than two progress ticks is a seek.
		jumped := m.ElapsedMS+2000 < s.ElapsedMS || m.ElapsedMS > s.ElapsedMS+2000
		s.ElapsedMS = m.ElapsedMS
		if m.TotalMS > 0 {
			s.TotalMS = m.TotalMS
		}
		if jumped {
			return ChangeSeeked
		}
		return 0

	case bus.PlaylistChanged:
		s.HasTracks = len(m.Paths) > 0
		s.HasNext = m.Index+1 < len(m.Paths)
		s.HasPrevious = m.Index > 0
		return ChangeOptions

	case bus.PlaybackSetVolume:
		level := output.ClampLevel(float64(m.Level))
		if level == s.Volume {
			return 0
		}
		s.Volume = level
		return ChangeVolume
	}
	return 0
}
