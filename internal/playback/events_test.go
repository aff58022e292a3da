package playback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/decoder"
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/output"
)

func TestTranslate(t *testing.T) {
	cfg := output.StreamConfig{SampleRate: 44100, Channels: 2}

	tests := []struct {
		name  string
		event decoder.Event
		want  []bus.Message
	}{
		{
			name:  "track loaded",
			event: decoder.TrackLoaded{Path: "/a.flac", DurationMS: 1000, SampleRate: 44100, Channels: 2},
			want:  []bus.Message{bus.PlaybackTrackLoaded{Path: "/a.flac", DurationMS: 1000, SampleRate: 44100, Channels: 2}},
		},
		{
			name:  "started",
			event: decoder.PlaybackStarted{Path: "/a.flac"},
			want:  []bus.Message{bus.PlaybackStateChanged{State: bus.StatePlaying}},
		},
		{
			name:  "resumed",
			event: decoder.PlaybackResumed{},
			want:  []bus.Message{bus.PlaybackStateChanged{State: bus.StatePlaying}},
		},
		{
			name:  "paused",
			event: decoder.PlaybackPaused{},
			want:  []bus.Message{bus.PlaybackStateChanged{State: bus.StatePaused}},
		},
		{
			name:  "stopped",
			event: decoder.PlaybackStopped{},
			want:  []bus.Message{bus.PlaybackStateChanged{State: bus.StateStopped}},
		},
		{
			name:  "finished announces the state first",
			event: decoder.TrackFinished{Path: "/a.flac"},
			want: []bus.Message{
				bus.PlaybackStateChanged{State: bus.StateStopped},
				bus.PlaybackTrackFinished{Path: "/a.flac"},
			},
		},
		{
			name:  "position",
			event: decoder.PositionChanged{MS: 1500, DurationMS: 3000},
			want:  []bus.Message{bus.PlaybackProgress{ElapsedMS: 1500, TotalMS: 3000}},
		},
		{
			name:  "buffering",
			event: decoder.Buffering{BufferedMS: 120},
			want: []bus.Message{
				bus.PlaybackStateChanged{State: bus.StateBuffering},
				bus.PlaybackBuffering{BufferedMS: 120},
			},
		},
		{
			name:  "output rebuilt",
			event: decoder.OutputRebuilt{Device: "dac", Config: cfg, Exact: true},
			want:  []bus.Message{bus.AudioStreamRebuilt{Device: "dac", Config: cfg, Exact: true}},
		},
		{
			name:  "error",
			event: decoder.Error{Op: errmsg.OpTrackOpen, Path: "/a.flac", Err: errors.New("permission denied")},
			want:  []bus.Message{bus.PlaybackError{Op: "open track", Path: "/a.flac", Err: "permission denied"}},
		},
		{
			name:  "error without cause",
			event: decoder.Error{Op: errmsg.OpOutputOpen},
			want:  []bus.Message{bus.PlaybackError{Op: "open audio output"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(tt.event))
		})
	}
}
