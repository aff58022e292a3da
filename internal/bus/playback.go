package bus

// PlaybackState is the coarse playback state broadcast to consumers.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
	StateBuffering
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateBuffering:
		return "Buffering"
	default:
		return "Unknown"
	}
}

// IsActive returns true while a track is loaded and not stopped.
func (s PlaybackState) IsActive() bool {
	return s == StatePlaying || s == StatePaused || s == StateBuffering
}

// Requests, usually from the UI or OS media controls.
type (
	PlaybackPlay     struct{}
	PlaybackPause    struct{}
	PlaybackStop     struct{}
	PlaybackNext     struct{}
	PlaybackPrevious struct{}

	// PlaybackToggle flips between playing and paused.
	PlaybackToggle struct{}

	// PlaybackSeek moves to a fraction (0..1) of the current track.
	PlaybackSeek struct {
		Fraction float32
	}

	// PlaybackSetVolume sets the output level (0..1).
	PlaybackSetVolume struct {
		Level float32
	}
)

// Notifications emitted by the core.
type (
	PlaybackProgress struct {
		ElapsedMS uint64
		TotalMS   uint64
	}

	PlaybackStateChanged struct {
		State PlaybackState
	}

	PlaybackTrackLoaded struct {
		Path       string
		DurationMS uint64
		SampleRate int
		Channels   int
	}

	PlaybackTrackFinished struct {
		Path string
	}

	// PlaybackBuffering is sent when the output ran dry before the decoder
	// caught up. Playback resumes on its own.
	PlaybackBuffering struct {
		BufferedMS uint64
	}

	PlaybackError struct {
		Op   string
		Path string
		Err  string
	}
)

func (PlaybackPlay) Namespace() Namespace          { return NamespacePlayback }
func (PlaybackPause) Namespace() Namespace         { return NamespacePlayback }
func (PlaybackStop) Namespace() Namespace          { return NamespacePlayback }
func (PlaybackNext) Namespace() Namespace          { return NamespacePlayback }
func (PlaybackPrevious) Namespace() Namespace      { return NamespacePlayback }
func (PlaybackToggle) Namespace() Namespace        { return NamespacePlayback }
func (PlaybackSeek) Namespace() Namespace          { return NamespacePlayback }
func (PlaybackSetVolume) Namespace() Namespace     { return NamespacePlayback }
func (PlaybackProgress) Namespace() Namespace      { return NamespacePlayback }
func (PlaybackStateChanged) Namespace() Namespace  { return NamespacePlayback }
func (PlaybackTrackLoaded) Namespace() Namespace   { return NamespacePlayback }
func (PlaybackTrackFinished) Namespace() Namespace { return NamespacePlayback }
func (PlaybackBuffering) Namespace() Namespace     { return NamespacePlayback }
func (PlaybackError) Namespace() Namespace         { return NamespacePlayback }
