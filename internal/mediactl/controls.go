package mediactl

import (
	"time"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/output"
)

// Controls turns OS control requests into Playback messages.
type Controls struct {
	tx      *bus.Sender
	tracker *Tracker
}

// NewControls publishes on tx. Relative and absolute seeks are resolved
// against tracker's position.
func NewControls(tx *bus.Sender, tracker *Tracker) *Controls {
	return &Controls{tx: tx, tracker: tracker}
}

func (c *Controls) Play() error     { return c.tx.Send(bus.PlaybackPlay{}) }
func (c *Controls) Pause() error    { return c.tx.Send(bus.PlaybackPause{}) }
func (c *Controls) Toggle() error   { return c.tx.Send(bus.PlaybackToggle{}) }
func (c *Controls) Stop() error     { return c.tx.Send(bus.PlaybackStop{}) }
func (c *Controls) Next() error     { return c.tx.Send(bus.PlaybackNext{}) }
func (c *Controls) Previous() error { return c.tx.Send(bus.PlaybackPrevious{}) }

// SeekBy moves by offset from the current position. Seeking before the
// start goes to the start; seeking past the end skips to the next track.
func (c *Controls) SeekBy(offset time.Duration) error {
	state := c.tracker.ControlState()
	if state.TotalMS == 0 {
		return nil
	}
	target := int64(state.ElapsedMS) + offset.Milliseconds()
	if target >= int64(state.TotalMS) {
		return c.Next()
	}
	return c.seekTo(max(target, 0), state.TotalMS)
}

// SeekTo moves to an absolute position. Positions outside the track are
// ignored.
func (c *Controls) SeekTo(position time.Duration) error {
	state := c.tracker.ControlState()
	ms := position.Milliseconds()
	if state.TotalMS == 0 || ms < 0 || ms > int64(state.TotalMS) {
		return nil
	}
	return c.seekTo(ms, state.TotalMS)
}

func (c *Controls) seekTo(ms int64, totalMS uint64) error {
	return c.tx.Send(bus.PlaybackSeek{Fraction: float32(float64(ms) / float64(totalMS))})
}

// SetVolume publishes a volume request, clamped to 0..1.
func (c *Controls) SetVolume(level float64) error {
	return c.tx.Send(bus.PlaybackSetVolume{Level: float32(output.ClampLevel(level))})
}
