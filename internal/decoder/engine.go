// Package decoder turns file paths into audio in the player's buffer.
//
// A Load decodes the first five seconds synchronously so playback can start
// at once, then a background goroutine decodes the rest in chunks, never
// more than the configured target ahead of the output.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/codec"
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/player"
)

// ErrClosed is returned by Send after Exit.
var ErrClosed = errors.New("decoder: closed")

// initialWindowSeconds is decoded before TrackLoaded is sent.
const initialWindowSeconds = 5

const (
	commandQueueSize = 32
	eventQueueSize   = 256
)

// Player is the part of the playback engine the decoder drives.
type Player interface {
	Do(ctx context.Context, cmd player.Command) error
	Events() <-chan player.Event
	Cursor() int64
	Len() int64
	Buffered() int64
	IsPlaying() bool
	Loads() uint64
}

// Verify the playback engine satisfies Player at compile time.
var _ Player = (*player.Engine)(nil)

// Options configure an Engine.
type Options struct {
	Player    Player
	Logger    zerolog.Logger
	Buffering config.BufferingConfig
	// ProgressInterval is the PositionChanged period while playing;
	// zero selects 500ms.
	ProgressInterval time.Duration
}

// track is the loaded track's parameters.
type track struct {
	path       string
	rate       int
	channels   int
	durationMS uint64
	load       uint64
}

// Engine is the decode engine.
type Engine struct {
	player           Player
	log              zerolog.Logger
	buffering        config.BufferingConfig
	progressInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan Command
	events chan Event
	done   chan struct{}
	state  atomic.Int32

	// Owned by the run loop.
	track       *track
	bg          *background
	wantPlaying bool
	poll        *time.Ticker
}

// New starts the command loop on its own OS thread.
func New(opts Options) *Engine {
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		player:           opts.Player,
		log:              opts.Logger,
		buffering:        opts.Buffering.Normalize(),
		progressInterval: interval,
		ctx:              ctx,
		cancel:           cancel,
		cmds:             make(chan Command, commandQueueSize),
		events:           make(chan Event, eventQueueSize),
		done:             make(chan struct{}),
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		e.run()
	}()
	return e
}

// Send queues cmd.
func (e *Engine) Send(cmd Command) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.cmds <- cmd:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// Close sends Exit and waits for the loop and background decoding to end.
func (e *Engine) Close() error {
	if err := e.Send(Exit{}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	<-e.done
	return nil
}

// Events returns the engine's notifications.
func (e *Engine) Events() <-chan Event { return e.events }

// Done is closed when the command loop has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

// State returns the current state.
func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) {
	prev := State(e.state.Swap(int32(s)))
	if prev != s {
		e.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("decoder state")
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("decoder event dropped, consumer too slow")
	}
}

func (e *Engine) run() {
	defer close(e.done)
	defer e.cancel()

	progress := time.NewTicker(e.progressInterval)
	defer progress.Stop()
	defer e.stopPolling()

	playerEvents := e.player.Events()
	for {
		var bgDone <-chan struct{}
		if e.bg != nil && !e.bg.finished {
			bgDone = e.bg.done
		}
		var pollC <-chan time.Time
		if e.poll != nil {
			pollC = e.poll.C
		}

		select {
		case cmd := <-e.cmds:
			if _, ok := cmd.(Exit); ok {
				e.stopBackground()
				e.setState(Idle)
				return
			}
			e.handle(cmd)
		case ev := <-playerEvents:
			e.handlePlayerEvent(ev)
		case <-bgDone:
			e.bg.finished = true
			if e.State() == Refilling {
				e.checkBuffering()
			}
		case <-pollC:
			e.checkBuffering()
		case <-progress.C:
			e.reportProgress()
		}
	}
}

func (e *Engine) handle(cmd Command) {
	switch c := cmd.(type) {
	case Load:
		e.load(c.Path, false)
	case Play:
		if c.Path == "" {
			e.resume()
			return
		}
		e.load(c.Path, true)
	case Pause:
		e.pause()
	case Resume:
		e.resume()
	case Stop:
		e.stop()
	case Seek:
		e.seek(c.MS)
	default:
		e.log.Warn().Str("command", fmt.Sprintf("%T", cmd)).Msg("unknown decoder command")
	}
}

// load opens path, hands the initial window to the player and starts the
// background decode. Until the player accepted the new window the previous
// track is left alone: its buffer, its background decode and its state.
func (e *Engine) load(path string, play bool) {
	prevState := e.State()
	e.setState(Probing)

	fail := func(op errmsg.Op, err error) {
		e.log.Warn().Err(err).Str("path", path).Str("op", string(op)).Msg("track load failed")
		if e.track != nil {
			e.setState(prevState)
		} else {
			e.setState(Failed)
		}
		e.emit(Error{Op: op, Path: path, Err: err})
	}

	src, _, err := codec.Open(path)
	if err != nil {
		op := errmsg.OpTrackProbe
		if !errors.Is(err, codec.ErrUnsupportedFormat) {
			op = errmsg.OpTrackOpen
		}
		fail(op, err)
		return
	}

	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		src.Close()
		fail(errmsg.OpTrackProbe, fmt.Errorf("invalid stream parameters %dHz/%dch", rate, channels))
		return
	}

	var durationMS uint64
	if frames := src.Frames(); frames > 0 {
		durationMS = uint64(frames) * 1000 / uint64(rate)
	}

	window := make([]float32, rate*channels*initialWindowSeconds)
	n, readErr := codec.ReadFull(src, window)
	eos := readErr != nil
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		e.log.Warn().Err(readErr).Str("path", path).Msg("decode error, treating as end of stream")
	}
	if n == 0 && readErr != nil && !errors.Is(readErr, io.EOF) {
		src.Close()
		fail(errmsg.OpTrackDecode, readErr)
		return
	}

	// The previous background decode keeps running until here; its appends
	// are fenced by load number, so none can land in the new buffer.
	err = e.player.Do(e.ctx, player.LoadBuffer{Samples: window[:n], SampleRate: rate, Channels: channels})
	if err != nil {
		src.Close()
		fail(errmsg.OpOutputOpen, err)
		return
	}
	e.stopBackground()
	e.stopPolling()

	t := &track{
		path:       path,
		rate:       rate,
		channels:   channels,
		durationMS: durationMS,
		load:       e.player.Loads(),
	}
	e.track = t
	e.wantPlaying = false

	e.log.Info().
		Str("path", path).
		Int("rate", rate).
		Int("channels", channels).
		Uint64("duration_ms", durationMS).
		Bool("complete", eos).
		Msg("track loaded")
	e.emit(TrackLoaded{Path: path, DurationMS: durationMS, SampleRate: rate, Channels: channels})

	if eos {
		src.Close()
		e.bg = &background{done: closedChan(), finished: true}
	} else {
		e.bg = e.startBackground(t, src)
	}

	if !play {
		e.setState(Paused)
		return
	}
	e.wantPlaying = true
	if err := e.player.Do(e.ctx, player.Play{}); err != nil {
		// Loaded but silent: report it and leave the track resumable.
		e.wantPlaying = false
		e.setState(Paused)
		e.emit(Error{Op: errmsg.OpPlaybackStart, Path: path, Err: err})
		e.emit(PlaybackPaused{})
		return
	}
	e.setState(Streaming)
	e.emit(PlaybackStarted{Path: path})
}

func (e *Engine) pause() {
	if e.track == nil || !e.State().CanPause() {
		return
	}
	e.wantPlaying = false
	e.stopPolling()
	if err := e.player.Do(e.ctx, player.Pause{}); err != nil {
		e.log.Warn().Err(err).Msg("pause failed")
		return
	}
	e.setState(Paused)
	e.emit(PlaybackPaused{})
}

func (e *Engine) resume() {
	if e.track == nil || !e.State().CanResume() {
		return
	}
	if e.State() == Finished {
		// Replay a finished track from the start.
		if err := e.player.Do(e.ctx, player.Stop{}); err != nil {
			e.log.Warn().Err(err).Msg("rewind failed")
			return
		}
	}
	e.wantPlaying = true
	if err := e.player.Do(e.ctx, player.Play{}); err != nil {
		e.emit(Error{Op: errmsg.OpPlaybackStart, Path: e.track.path, Err: err})
		return
	}
	e.setState(Streaming)
	e.emit(PlaybackResumed{})
}

func (e *Engine) stop() {
	if e.track == nil {
		return
	}
	e.wantPlaying = false
	e.stopPolling()
	if err := e.player.Do(e.ctx, player.Stop{}); err != nil {
		e.log.Warn().Err(err).Msg("stop failed")
		return
	}
	e.setState(Idle)
	e.emit(PlaybackStopped{})
}

func (e *Engine) seek(ms uint64) {
	t := e.track
	if t == nil {
		return
	}
	if t.durationMS > 0 && ms > t.durationMS {
		ms = t.durationMS
	}

	prev := e.State()
	e.setState(Seeking)
	offset := SeekOffset(ms, t.rate, t.channels)
	if err := e.player.Do(e.ctx, player.Seek{Offset: offset}); err != nil {
		e.setState(prev)
		e.emit(Error{Op: errmsg.OpPlaybackSeek, Path: t.path, Err: err})
		return
	}

	switch prev {
	case Finished, Failed:
		// The output stopped at the end; Resume plays from the new spot.
		e.wantPlaying = false
		e.setState(Paused)
	case Refilling:
		e.setState(Refilling)
		e.checkBuffering()
	default:
		e.setState(prev)
	}
	e.emit(PositionChanged{MS: ms, DurationMS: t.durationMS})
}

// SeekOffset converts a position in milliseconds to an interleaved sample
// offset for a track with the given parameters.
func SeekOffset(ms uint64, sampleRate, channels int) int64 {
	return int64(ms) * int64(sampleRate) / 1000 * int64(channels)
}

func (e *Engine) handlePlayerEvent(ev player.Event) {
	switch ev := ev.(type) {
	case player.EndReached:
		e.endReached(ev)
	case player.StreamRebuilt:
		e.emit(OutputRebuilt{Device: ev.Device, Config: ev.Config, Exact: ev.Exact})
	case player.DeviceError:
		path := ""
		if e.track != nil {
			path = e.track.path
		}
		e.emit(Error{Op: errmsg.OpOutputOpen, Path: path, Err: ev.Err})
	}
}

func (e *Engine) endReached(ev player.EndReached) {
	t := e.track
	if t == nil || ev.Load != t.load || !e.wantPlaying {
		return
	}

	if e.bg != nil && !e.bg.finished {
		e.setState(Refilling)
		e.emit(Buffering{BufferedMS: e.bufferedMS()})
		e.startPolling()
		return
	}
	if e.player.Buffered() > 0 {
		// Samples landed after the callback saw the end.
		e.resumeAfterUnderrun()
		return
	}

	e.wantPlaying = false
	e.setState(Finished)
	e.log.Debug().Str("path", t.path).Msg("track finished")
	e.emit(TrackFinished{Path: t.path})
}

// checkBuffering resumes output once enough audio was decoded past the
// cursor, or finishes the track when decoding ended with nothing left.
func (e *Engine) checkBuffering() {
	if e.State() != Refilling || e.track == nil {
		e.stopPolling()
		return
	}
	buffered := e.player.Buffered()
	finished := e.bg == nil || e.bg.finished
	low := e.msToSamples(e.buffering.PlayerLowWatermarkMS)

	switch {
	case buffered >= low || (finished && buffered > 0):
		e.resumeAfterUnderrun()
	case finished:
		e.stopPolling()
		e.wantPlaying = false
		e.setState(Finished)
		e.emit(TrackFinished{Path: e.track.path})
	}
}

func (e *Engine) resumeAfterUnderrun() {
	e.stopPolling()
	if !e.wantPlaying {
		return
	}
	if err := e.player.Do(e.ctx, player.Play{}); err != nil {
		e.log.Warn().Err(err).Msg("resume after underrun failed")
		return
	}
	e.setState(Streaming)
	e.emit(PlaybackResumed{})
}

func (e *Engine) startPolling() {
	if e.poll == nil {
		e.poll = time.NewTicker(time.Duration(e.buffering.PlayerRequestIntervalMS) * time.Millisecond)
	}
}

func (e *Engine) stopPolling() {
	if e.poll != nil {
		e.poll.Stop()
		e.poll = nil
	}
}

func (e *Engine) reportProgress() {
	t := e.track
	if t == nil || e.State() != Streaming || !e.player.IsPlaying() {
		return
	}
	frames := e.player.Cursor() / int64(t.channels)
	ms := uint64(frames) * 1000 / uint64(t.rate)
	e.emit(PositionChanged{MS: ms, DurationMS: t.durationMS})
}

func (e *Engine) bufferedMS() uint64 {
	t := e.track
	if t == nil {
		return 0
	}
	frames := e.player.Buffered() / int64(t.channels)
	return uint64(frames) * 1000 / uint64(t.rate)
}

func (e *Engine) msToSamples(ms int) int64 {
	t := e.track
	if t == nil {
		return 0
	}
	return int64(ms) * int64(t.rate) / 1000 * int64(t.channels)
}

func closedChan() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
