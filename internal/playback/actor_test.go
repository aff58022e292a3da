package playback

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/decoder"
	"github.com/llehouerou/riptide/internal/output"
	"github.com/llehouerou/riptide/internal/player"
	"github.com/llehouerou/riptide/internal/trackinfo"
)

type fakeDecoder struct {
	cmds   chan decoder.Command
	events chan decoder.Event
	done   chan struct{}
	err    error
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		cmds:   make(chan decoder.Command, 64),
		events: make(chan decoder.Event, 64),
		done:   make(chan struct{}),
	}
}

func (d *fakeDecoder) Send(cmd decoder.Command) error {
	if d.err != nil {
		return d.err
	}
	d.cmds <- cmd
	return nil
}

func (d *fakeDecoder) Events() <-chan decoder.Event { return d.events }
func (d *fakeDecoder) Done() <-chan struct{}        { return d.done }

type fakePlayer struct {
	cmds chan player.Command
}

func (p *fakePlayer) Send(cmd player.Command) error {
	p.cmds <- cmd
	return nil
}

type harness struct {
	t      *testing.T
	tx     *bus.Sender
	obs    *bus.Receiver
	dec    *fakeDecoder
	player *fakePlayer
	cancel context.CancelFunc
	done   chan error
}

// start runs a playback actor on a fresh bus. Must be called inside a
// synctest bubble; stop must be deferred.
func start(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		tx:     bus.New(256),
		dec:    newFakeDecoder(),
		player: &fakePlayer{cmds: make(chan player.Command, 64)},
		done:   make(chan error, 1),
	}
	h.obs = h.tx.Subscribe()
	rx := h.tx.Subscribe()

	a := New(Options{
		Decoder: h.dec,
		Player:  h.player,
		Host:    output.NewFakeHost(),
		Logger:  zerolog.Nop(),
		ReadInfo: func(path string) (trackinfo.Info, error) {
			return trackinfo.Info{Path: path, Title: "Title of " + path, Artist: "Artist"}, nil
		},
	})

	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	go func() { h.done <- a.Run(ctx, rx, h.tx.Clone()) }()
	synctest.Wait()
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
	h.tx.Close()
}

func (h *harness) send(msg bus.Message) {
	h.t.Helper()
	require.NoError(h.t, h.tx.Send(msg))
	synctest.Wait()
}

func (h *harness) event(ev decoder.Event) {
	h.dec.events <- ev
	synctest.Wait()
}

// commands drains the decoder commands sent so far.
func (h *harness) commands() []decoder.Command {
	var out []decoder.Command
	for {
		select {
		case cmd := <-h.dec.cmds:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

// observed drains everything the observer saw, including what the test sent.
func (h *harness) observed() []bus.Message {
	var out []bus.Message
	for {
		msg, ok, err := h.obs.TryRecv()
		require.NoError(h.t, err)
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func TestRun_PublishesDevices(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		msgs := h.observed()
		require.Len(t, msgs, 1)
		detected, ok := msgs[0].(bus.AudioDevicesDetected)
		require.True(t, ok)
		assert.Equal(t, "fake", detected.Backend)
		require.Len(t, detected.Devices, 1)
		assert.True(t, detected.Devices[0].Default)
	})
}

func TestPlaylistReplace_PlaysStartTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()
		h.observed()

		h.send(bus.PlaylistReplace{Paths: []string{"/a.flac", "/b.flac"}, Start: 1})

		assert.Equal(t, []decoder.Command{decoder.Play{Path: "/b.flac"}}, h.commands())
		assert.Contains(t, h.observed(), bus.Message(bus.PlaylistChanged{Paths: []string{"/a.flac", "/b.flac"}, Index: 1}))
	})
}

func TestTrackFinished_AdvancesQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		h.send(bus.PlaylistReplace{Paths: []string{"/a.flac", "/b.flac"}})
		h.commands()

		h.event(decoder.TrackFinished{Path: "/a.flac"})
		assert.Equal(t, []decoder.Command{decoder.Play{Path: "/b.flac"}}, h.commands())

		// Nothing after the last track.
		h.event(decoder.TrackFinished{Path: "/b.flac"})
		assert.Empty(t, h.commands())
	})
}

func TestTrackLoaded_PublishesMetadata(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()
		h.observed()

		h.event(decoder.TrackLoaded{Path: "/a.flac", DurationMS: 8000, SampleRate: 44100, Channels: 2})

		msgs := h.observed()
		assert.Contains(t, msgs, bus.Message(bus.PlaybackTrackLoaded{Path: "/a.flac", DurationMS: 8000, SampleRate: 44100, Channels: 2}))
		assert.Contains(t, msgs, bus.Message(bus.MetadataUpdated{Path: "/a.flac", Title: "Title of /a.flac", Artist: "Artist"}))
	})
}

func TestToggle_FollowsPublishedState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		h.send(bus.LibraryTrackSelected{Path: "/a.flac"})
		assert.Equal(t, []decoder.Command{decoder.Play{Path: "/a.flac"}}, h.commands())

		h.event(decoder.TrackLoaded{Path: "/a.flac", DurationMS: 8000, SampleRate: 44100, Channels: 2})
		h.event(decoder.PlaybackStarted{Path: "/a.flac"})

		h.send(bus.PlaybackToggle{})
		assert.Equal(t, []decoder.Command{decoder.Pause{}}, h.commands())

		h.event(decoder.PlaybackPaused{})
		h.send(bus.PlaybackToggle{})
		assert.Equal(t, []decoder.Command{decoder.Play{}}, h.commands())
	})
}

func TestPlay_StartsQueueWhenNothingLoaded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		h.send(bus.PlaybackPlay{})
		assert.Empty(t, h.commands(), "empty queue")

		h.send(bus.PlaylistAppend{Paths: []string{"/a.flac", "/b.flac"}})
		assert.Empty(t, h.commands(), "append does not start playback")

		h.send(bus.PlaybackPlay{})
		assert.Equal(t, []decoder.Command{decoder.Play{Path: "/a.flac"}}, h.commands())
	})
}

func TestSeek_UsesFractionOfDuration(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		h.send(bus.PlaybackSeek{Fraction: 0.5})
		assert.Empty(t, h.commands(), "nothing loaded")

		h.event(decoder.TrackLoaded{Path: "/a.flac", DurationMS: 8000, SampleRate: 44100, Channels: 2})
		h.send(bus.PlaybackSeek{Fraction: 0.5})
		h.send(bus.PlaybackSeek{Fraction: 1.5})
		h.send(bus.PlaybackSeek{Fraction: -1})

		assert.Equal(t, []decoder.Command{
			decoder.Seek{MS: 4000},
			decoder.Seek{MS: 8000},
			decoder.Seek{MS: 0},
		}, h.commands())
	})
}

func TestPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		h.send(bus.PlaylistReplace{Paths: []string{"/a.flac", "/b.flac"}, Start: 1})
		h.commands()

		// Well into the track: rewind.
		h.event(decoder.PositionChanged{MS: 5000, DurationMS: 8000})
		h.send(bus.PlaybackPrevious{})
		assert.Equal(t, []decoder.Command{decoder.Seek{MS: 0}}, h.commands())

		// Near the start: previous track.
		h.event(decoder.PositionChanged{MS: 1000, DurationMS: 8000})
		h.send(bus.PlaybackPrevious{})
		assert.Equal(t, []decoder.Command{decoder.Play{Path: "/a.flac"}}, h.commands())
	})
}

func TestVolumeAndOutputChangesReachThePlayer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()

		pref := output.Preference{Device: "dac", SampleRate: 96000}
		h.send(bus.PlaybackSetVolume{Level: 0.5})
		h.send(bus.PlaybackSetVolume{Level: 4})
		h.send(bus.AudioOutputChanged{Preference: pref})
		h.send(bus.AudioSampleRateChanged{Previous: 48000, Current: 96000, Preference: pref})

		var got []player.Command
		for len(h.player.cmds) > 0 {
			got = append(got, <-h.player.cmds)
		}
		assert.Equal(t, []player.Command{
			player.SetVolume{Level: 0.5},
			player.SetVolume{Level: 1},
			player.Reconfigure{Preference: pref},
			player.Reconfigure{Preference: pref},
		}, got)
	})
}

func TestDecoderErrorIsPublished(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		defer h.stop()
		h.observed()

		h.event(decoder.Error{Op: "open track", Path: "/gone.flac", Err: errors.New("no such file")})

		assert.Equal(t, []bus.Message{
			bus.PlaybackError{Op: "open track", Path: "/gone.flac", Err: "no such file"},
		}, h.observed())
	})
}

func TestRun_StopsCleanlyWhenDecoderClosed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := start(t)
		h.dec.err = decoder.ErrClosed

		require.NoError(t, h.tx.Send(bus.PlaybackStop{}))
		assert.NoError(t, <-h.done)
		h.tx.Close()
	})
}
