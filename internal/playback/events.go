package playback

import (
	"context"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/decoder"
)

// translate maps a decoder event to the bus messages announcing it.
func translate(ev decoder.Event) []bus.Message {
	switch ev := ev.(type) {
	case decoder.TrackLoaded:
		return []bus.Message{bus.PlaybackTrackLoaded{
			Path:       ev.Path,
			DurationMS: ev.DurationMS,
			SampleRate: ev.SampleRate,
			Channels:   ev.Channels,
		}}
	case decoder.PlaybackStarted, decoder.PlaybackResumed:
		return []bus.Message{bus.PlaybackStateChanged{State: bus.StatePlaying}}
	case decoder.PlaybackPaused:
		return []bus.Message{bus.PlaybackStateChanged{State: bus.StatePaused}}
	case decoder.PlaybackStopped:
		return []bus.Message{bus.PlaybackStateChanged{State: bus.StateStopped}}
	case decoder.TrackFinished:
		return []bus.Message{
			bus.PlaybackStateChanged{State: bus.StateStopped},
			bus.PlaybackTrackFinished{Path: ev.Path},
		}
	case decoder.PositionChanged:
		return []bus.Message{bus.PlaybackProgress{ElapsedMS: ev.MS, TotalMS: ev.DurationMS}}
	case decoder.Buffering:
		return []bus.Message{
			bus.PlaybackStateChanged{State: bus.StateBuffering},
			bus.PlaybackBuffering{BufferedMS: ev.BufferedMS},
		}
	case decoder.OutputRebuilt:
		return []bus.Message{bus.AudioStreamRebuilt{Device: ev.Device, Config: ev.Config, Exact: ev.Exact}}
	case decoder.Error:
		msg := bus.PlaybackError{Op: string(ev.Op), Path: ev.Path}
		if ev.Err != nil {
			msg.Err = ev.Err.Error()
		}
		return []bus.Message{msg}
	}
	return nil
}

// forward publishes decoder events on the bus until ctx is done or the
// decoder exits.
func forward(ctx context.Context, events <-chan decoder.Event, done <-chan struct{}, tx *bus.Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev := <-events:
			for _, msg := range translate(ev) {
				_ = tx.Send(msg)
			}
		}
	}
}
