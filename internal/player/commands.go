package player

import "github.com/llehouerou/riptide/internal/output"

// Command is a request handled by the engine's run loop, in send order.
type Command interface {
	isCommand()
}

// LoadBuffer replaces the buffer and resets the cursor. The engine takes
// ownership of Samples. Output stops until the next Play.
type LoadBuffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// AppendSamples extends the buffer without moving the cursor. The engine
// takes ownership of Samples. A non-zero Load must match Engine.Loads, or
// the samples belong to a replaced buffer and ErrStaleLoad is returned.
type AppendSamples struct {
	Samples []float32
	Load    uint64
}

// Play starts emitting the buffer from the cursor.
type Play struct{}

// Pause stops emitting without moving the cursor.
type Pause struct{}

// Stop stops emitting and rewinds the cursor to 0. The buffer is kept.
type Stop struct{}

// Seek moves the cursor to Offset, an interleaved sample index.
type Seek struct {
	Offset int64
}

// SetVolume sets the output level (0.0 to 1.0).
type SetVolume struct {
	Level float64
}

// Reconfigure changes the pinned output preference and rebuilds the stream
// if the resulting configuration differs from the open one.
type Reconfigure struct {
	Preference output.Preference
}

// Exit closes the stream and ends the run loop.
type Exit struct{}

func (LoadBuffer) isCommand()    {}
func (AppendSamples) isCommand() {}
func (Play) isCommand()          {}
func (Pause) isCommand()         {}
func (Stop) isCommand()          {}
func (Seek) isCommand()          {}
func (SetVolume) isCommand()     {}
func (Reconfigure) isCommand()   {}
func (Exit) isCommand()          {}

// Event is a notification from the engine.
type Event interface {
	isEvent()
}

// EndReached is sent once when the cursor hits the end of the buffer while
// playing. Load identifies the buffer (see Engine.Loads).
type EndReached struct {
	Load uint64
}

// StreamRebuilt is sent after a new output stream replaced the previous one.
type StreamRebuilt struct {
	Device string
	Config output.StreamConfig
	Exact  bool
}

// DeviceError is sent when opening a stream failed. The previous stream and
// buffer are still in place.
type DeviceError struct {
	Err error
}

func (EndReached) isEvent()    {}
func (StreamRebuilt) isEvent() {}
func (DeviceError) isEvent()   {}
