package decoder

import (
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/output"
)

// Command is consumed by the engine strictly in send order.
type Command interface {
	isCommand()
}

// Load opens Path and buffers its first seconds without playing.
type Load struct{ Path string }

// Play loads Path and starts playback. An empty Path resumes the current
// track.
type Play struct{ Path string }

type Pause struct{}

type Resume struct{}

// Stop stops playback and rewinds. The decoded audio is kept.
type Stop struct{}

// Seek moves to MS milliseconds into the current track.
type Seek struct{ MS uint64 }

// Exit ends the command loop and any background decoding.
type Exit struct{}

func (Load) isCommand()   {}
func (Play) isCommand()   {}
func (Pause) isCommand()  {}
func (Resume) isCommand() {}
func (Stop) isCommand()   {}
func (Seek) isCommand()   {}
func (Exit) isCommand()   {}

// Event is emitted by the engine.
type Event interface {
	isEvent()
}

// TrackLoaded is sent as soon as the initial window is in the player.
// DurationMS is 0 when the container has no length.
type TrackLoaded struct {
	Path       string
	DurationMS uint64
	SampleRate int
	Channels   int
}

// TrackFinished is sent when the output drained a fully decoded track.
type TrackFinished struct{ Path string }

// PositionChanged reports the playback position.
type PositionChanged struct {
	MS         uint64
	DurationMS uint64
}

// PlaybackStarted is sent when Play starts a freshly loaded track.
type PlaybackStarted struct{ Path string }

type PlaybackPaused struct{}

type PlaybackResumed struct{}

type PlaybackStopped struct{}

// Buffering is sent when the output ran dry before decoding finished.
type Buffering struct{ BufferedMS uint64 }

// OutputRebuilt is sent when the player replaced its output stream.
type OutputRebuilt struct {
	Device string
	Config output.StreamConfig
	Exact  bool
}

// Error reports a failure that prevented an operation. Mid-stream decode
// errors are not reported here; they end the stream early.
type Error struct {
	Op   errmsg.Op
	Path string
	Err  error
}

func (TrackLoaded) isEvent()     {}
func (TrackFinished) isEvent()   {}
func (PositionChanged) isEvent() {}
func (PlaybackStarted) isEvent() {}
func (PlaybackPaused) isEvent()  {}
func (PlaybackResumed) isEvent() {}
func (PlaybackStopped) isEvent() {}
func (Buffering) isEvent()       {}
func (OutputRebuilt) isEvent()   {}
func (Error) isEvent()           {}
