// Package playback is the bus-facing side of the audio pipeline.
//
// The actor turns Playback, Playlist and Library requests into decoder
// commands, keeps the play queue, and publishes the decoder's events back
// on the bus. It never touches the sample buffer: everything goes through
// the decoder and player command APIs.
package playback

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/decoder"
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/output"
	"github.com/llehouerou/riptide/internal/player"
	"github.com/llehouerou/riptide/internal/trackinfo"
)

// previousRestartMS is how far into a track Previous rewinds instead of
// going back a track.
const previousRestartMS = 3000

// Decoder is the decode engine as seen by the actor.
type Decoder interface {
	Send(cmd decoder.Command) error
	Events() <-chan decoder.Event
	Done() <-chan struct{}
}

// Player is the part of the playback engine the actor drives directly.
type Player interface {
	Send(cmd player.Command) error
}

// Devices lists the host's output devices.
type Devices interface {
	Name() string
	Devices() ([]output.DeviceInfo, error)
}

// Options configure an Actor.
type Options struct {
	Decoder Decoder
	Player  Player
	Host    Devices
	Logger  zerolog.Logger
	// ReadInfo reads display tags; nil selects trackinfo.Read.
	ReadInfo func(path string) (trackinfo.Info, error)
}

// Actor is the playback actor. The queue survives actor restarts.
type Actor struct {
	dec      Decoder
	player   Player
	host     Devices
	log      zerolog.Logger
	readInfo func(path string) (trackinfo.Info, error)

	queue *Queue

	// Derived from the actor's own bus messages.
	state      bus.PlaybackState
	loaded     string
	durationMS uint64
	elapsedMS  uint64
}

var _ actor.Actor = (*Actor)(nil)

// New creates the playback actor.
func New(opts Options) *Actor {
	readInfo := opts.ReadInfo
	if readInfo == nil {
		readInfo = trackinfo.Read
	}
	return &Actor{
		dec:      opts.Decoder,
		player:   opts.Player,
		host:     opts.Host,
		log:      opts.Logger,
		readInfo: readInfo,
		queue:    NewQueue(),
	}
}

func (a *Actor) Name() string { return "playback" }

// Run forwards decoder events to the bus and handles requests until ctx is
// done or the bus closes.
func (a *Actor) Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	ctx, cancel := context.WithCancel(ctx)
	fwdDone := make(chan struct{})
	go func() {
		defer close(fwdDone)
		forward(ctx, a.dec.Events(), a.dec.Done(), tx)
	}()
	defer func() {
		cancel()
		<-fwdDone
	}()

	a.publishDevices(tx)

	err := actor.Consume(ctx, a.log, rx, func(_ context.Context, msg bus.Message) error {
		return a.handle(msg, tx)
	})
	if errors.Is(err, errEngineClosed) {
		return nil
	}
	return err
}

func (a *Actor) publishDevices(tx *bus.Sender) {
	if a.host == nil {
		return
	}
	devices, err := a.host.Devices()
	if err != nil {
		a.log.Warn().Err(err).Msg("list output devices")
		_ = tx.Send(bus.PlaybackError{Op: string(errmsg.OpOutputEnumerate), Err: err.Error()})
		return
	}
	a.log.Info().Str("backend", a.host.Name()).Int("devices", len(devices)).Msg("output devices detected")
	_ = tx.Send(bus.AudioDevicesDetected{Backend: a.host.Name(), Devices: devices})
}

func (a *Actor) handle(msg bus.Message, tx *bus.Sender) error {
	switch m := msg.(type) {
	// Requests.
	case bus.PlaybackPlay:
		return a.play(tx)
	case bus.PlaybackPause:
		return a.send(decoder.Pause{})
	case bus.PlaybackToggle:
		if a.state == bus.StatePlaying || a.state == bus.StateBuffering {
			return a.send(decoder.Pause{})
		}
		return a.play(tx)
	case bus.PlaybackStop:
		return a.send(decoder.Stop{})
	case bus.PlaybackNext:
		if path := a.queue.Next(); path != "" {
			a.publishQueue(tx)
			return a.send(decoder.Play{Path: path})
		}
	case bus.PlaybackPrevious:
		if a.elapsedMS > previousRestartMS || a.queue.CurrentIndex() <= 0 {
			return a.send(decoder.Seek{MS: 0})
		}
		if path := a.queue.Previous(); path != "" {
			a.publishQueue(tx)
			return a.send(decoder.Play{Path: path})
		}
	case bus.PlaybackSeek:
		return a.seek(m.Fraction)
	case bus.PlaybackSetVolume:
		level := output.ClampLevel(float64(m.Level))
		if err := a.player.Send(player.SetVolume{Level: level}); err != nil {
			return a.engineGone(err)
		}

	case bus.PlaylistReplace:
		path := a.queue.Replace(m.Start, m.Paths...)
		a.publishQueue(tx)
		if path == "" {
			return a.send(decoder.Stop{})
		}
		return a.send(decoder.Play{Path: path})
	case bus.PlaylistAppend:
		a.queue.Add(m.Paths...)
		a.publishQueue(tx)
	case bus.LibraryTrackSelected:
		path := a.queue.AddAndPlay(m.Path)
		a.publishQueue(tx)
		return a.send(decoder.Play{Path: path})

	case bus.AudioOutputChanged:
		a.log.Info().
			Interface("previous", m.Previous).
			Interface("current", m.Current).
			Msg("output changed, reconfiguring player")
		return a.reconfigure(m.Preference)
	case bus.AudioSampleRateChanged:
		a.log.Info().Int("previous", m.Previous).Int("current", m.Current).Msg("output sample rate changed")
		return a.reconfigure(m.Preference)
	case bus.CastDeviceSelected:
		a.log.Info().Str("device", m.Name).Msg("cast target selected, playing locally")

	// The actor's own notifications, read back to keep derived state.
	case bus.PlaybackStateChanged:
		a.state = m.State
	case bus.PlaybackTrackLoaded:
		a.loaded = m.Path
		a.durationMS = m.DurationMS
		a.elapsedMS = 0
		a.publishMetadata(m.Path, tx)
	case bus.PlaybackProgress:
		a.elapsedMS = m.ElapsedMS
	case bus.PlaybackTrackFinished:
		if path := a.queue.Next(); path != "" {
			a.publishQueue(tx)
			return a.send(decoder.Play{Path: path})
		}
	}
	return nil
}

// play resumes the loaded track, or starts the queue's current track when
// nothing was loaded yet.
func (a *Actor) play(tx *bus.Sender) error {
	if a.loaded != "" {
		return a.send(decoder.Play{})
	}
	path := a.queue.Current()
	if path == "" {
		path = a.queue.Next()
		if path == "" {
			return nil
		}
		a.publishQueue(tx)
	}
	return a.send(decoder.Play{Path: path})
}

func (a *Actor) seek(fraction float32) error {
	if a.loaded == "" || a.durationMS == 0 {
		return nil
	}
	fraction = min(max(fraction, 0), 1)
	ms := uint64(float64(fraction) * float64(a.durationMS))
	a.elapsedMS = ms
	return a.send(decoder.Seek{MS: ms})
}

func (a *Actor) reconfigure(pref output.Preference) error {
	if err := a.player.Send(player.Reconfigure{Preference: pref}); err != nil {
		return a.engineGone(err)
	}
	return nil
}

func (a *Actor) publishQueue(tx *bus.Sender) {
	_ = tx.Send(bus.PlaylistChanged{Paths: a.queue.Paths(), Index: a.queue.CurrentIndex()})
}

func (a *Actor) publishMetadata(path string, tx *bus.Sender) {
	info, err := a.readInfo(path)
	if err != nil {
		a.log.Debug().Err(err).Str("path", path).Msg("read tags")
	}
	_ = tx.Send(bus.MetadataUpdated{
		Path:   path,
		Title:  info.Title,
		Artist: info.Artist,
		Album:  info.Album,
	})
}

func (a *Actor) send(cmd decoder.Command) error {
	if err := a.dec.Send(cmd); err != nil {
		return a.engineGone(err)
	}
	return nil
}

// engineGone turns a closed engine into a clean stop: the process is
// shutting down and there is nothing left to drive.
func (a *Actor) engineGone(err error) error {
	if errors.Is(err, decoder.ErrClosed) || errors.Is(err, player.ErrClosed) {
		a.log.Debug().Err(err).Msg("engine closed, playback actor stopping")
		return errEngineClosed
	}
	return err
}

var errEngineClosed = errors.New("playback: engine closed")
