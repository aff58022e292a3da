// Package player owns the output stream and the shared sample buffer.
//
// One goroutine, locked to its OS thread, applies commands in order. The
// output backend's real-time callback reads the buffer from an atomic
// cursor. Everything else in the process talks to the engine through
// Send, Do and the read-only queries.
package player

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/output"
)

// ErrClosed is returned once the engine has exited.
var ErrClosed = errors.New("player: closed")

// ErrStaleLoad rejects an append aimed at a buffer that was replaced.
var ErrStaleLoad = errors.New("player: buffer replaced")

const (
	commandQueueSize = 64
	eventQueueSize   = 64
)

// Options configure an Engine.
type Options struct {
	Host       output.Host
	Logger     zerolog.Logger
	Preference output.Preference
	// Volume is the initial level; values <= 0 mean full volume.
	Volume float64
}

type request struct {
	cmd   Command
	reply chan error
}

// Engine is the playback engine.
type Engine struct {
	host output.Host
	log  zerolog.Logger

	cmds   chan request
	events chan Event
	done   chan struct{}

	// Shared with the output callback.
	mu       sync.Mutex
	buf      sampleBuffer
	scratch  []float32
	length   atomic.Int64
	cursor   atomic.Int64
	playing  atomic.Bool
	rate     atomic.Int64
	channels atomic.Int64
	loads    atomic.Uint64
	gen      atomic.Uint64

	// Owned by the run loop.
	stream    output.Stream
	requested output.StreamConfig
	pref      output.Preference
	volume    float64
}

// New opens a stream on the preferred device's default configuration and
// starts the run loop.
func New(opts Options) (*Engine, error) {
	if opts.Host == nil {
		return nil, errors.New("player: no output host")
	}
	volume := opts.Volume
	if volume <= 0 {
		volume = 1
	}

	e := &Engine{
		host:   opts.Host,
		log:    opts.Logger,
		cmds:   make(chan request, commandQueueSize),
		events: make(chan Event, eventQueueSize),
		done:   make(chan struct{}),
		pref:   opts.Preference,
		volume: output.ClampLevel(volume),
	}

	initial, err := e.initialConfig()
	if err != nil {
		return nil, err
	}
	if err := e.rebuild(initial, false); err != nil {
		return nil, err
	}

	started := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		close(started)
		e.run()
	}()
	<-started

	return e, nil
}

func (e *Engine) initialConfig() (output.StreamConfig, error) {
	devices, err := e.host.Devices()
	if err != nil {
		return output.StreamConfig{}, fmt.Errorf("list devices: %w", err)
	}
	dev, _, err := output.FindDevice(devices, e.pref.Device)
	if err != nil {
		return output.StreamConfig{}, err
	}
	cfg := dev.DefaultConfig
	if !cfg.Valid() {
		cfg = output.StreamConfig{SampleRate: 48000, Channels: 2}
	}
	return e.pref.Apply(cfg), nil
}

// Send queues cmd without waiting for it to be applied.
func (e *Engine) Send(cmd Command) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.cmds <- request{cmd: cmd}:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// Do queues cmd and waits until it has been applied.
func (e *Engine) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.cmds <- req:
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-e.done:
		// Exit replies before closing done.
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends Exit and waits for the run loop to finish.
func (e *Engine) Close() error {
	if err := e.Send(Exit{}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	<-e.done
	return nil
}

// Events returns the engine's notifications.
func (e *Engine) Events() <-chan Event { return e.events }

// Done is closed when the run loop has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) run() {
	defer close(e.done)
	for req := range e.cmds {
		err := e.handle(req.cmd)
		if err != nil {
			e.log.Warn().Err(err).Str("command", fmt.Sprintf("%T", req.cmd)).Msg("player command failed")
		}
		if req.reply != nil {
			req.reply <- err
		}
		if _, ok := req.cmd.(Exit); ok {
			return
		}
	}
}

func (e *Engine) handle(cmd Command) error {
	switch c := cmd.(type) {
	case LoadBuffer:
		return e.loadBuffer(c)
	case AppendSamples:
		if c.Load != 0 && c.Load != e.loads.Load() {
			return ErrStaleLoad
		}
		e.appendSamples(c.Samples)
	case Play:
		e.playing.Store(true)
	case Pause:
		e.playing.Store(false)
	case Stop:
		e.playing.Store(false)
		e.cursor.Store(0)
	case Seek:
		e.seek(c.Offset)
	case SetVolume:
		e.volume = output.ClampLevel(c.Level)
		if e.stream != nil {
			e.stream.SetVolume(e.volume)
		}
	case Reconfigure:
		return e.reconfigure(c.Preference)
	case Exit:
		e.exit()
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
	return nil
}

func (e *Engine) loadBuffer(c LoadBuffer) error {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("invalid buffer format %dHz/%dch", c.SampleRate, c.Channels)
	}

	want := e.pref.Apply(output.StreamConfig{SampleRate: c.SampleRate, Channels: c.Channels})
	if e.stream == nil || want != e.requested {
		// On failure the command is dropped: old stream and buffer stay.
		if err := e.rebuild(want, e.stream != nil); err != nil {
			return err
		}
	}

	e.playing.Store(false)
	e.mu.Lock()
	e.buf.reset(c.Samples)
	e.length.Store(e.buf.length)
	e.cursor.Store(0)
	e.rate.Store(int64(c.SampleRate))
	e.channels.Store(int64(c.Channels))
	e.loads.Add(1)
	e.mu.Unlock()

	return nil
}

func (e *Engine) appendSamples(samples []float32) {
	if len(samples) == 0 {
		return
	}
	e.mu.Lock()
	e.buf.append(samples)
	e.length.Store(e.buf.length)
	e.mu.Unlock()
}

func (e *Engine) seek(offset int64) {
	offset = max(offset, 0)
	if ch := e.channels.Load(); ch > 1 {
		offset -= offset % ch
	}
	e.cursor.Store(offset)
}

func (e *Engine) reconfigure(pref output.Preference) error {
	prevPref := e.pref
	e.pref = pref

	rate, channels := e.Format()
	source := output.StreamConfig{SampleRate: rate, Channels: channels}
	if !source.Valid() {
		source = e.requested
	}
	want := pref.Apply(source)

	deviceChanged := e.stream == nil || pref.Device != prevPref.Device
	if !deviceChanged && want == e.requested {
		return nil
	}
	if err := e.rebuild(want, true); err != nil {
		e.pref = prevPref
		return err
	}
	return nil
}

func (e *Engine) exit() {
	e.playing.Store(false)
	e.gen.Add(1)
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			e.log.Debug().Err(err).Msg("close output stream")
		}
		e.stream = nil
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		// Nobody is draining; drop rather than block the caller.
	}
}

// Cursor returns the next interleaved sample index to emit.
func (e *Engine) Cursor() int64 { return e.cursor.Load() }

// Len returns the number of buffered samples.
func (e *Engine) Len() int64 { return e.length.Load() }

// Buffered returns the samples between the cursor and the end of the buffer.
func (e *Engine) Buffered() int64 {
	return max(e.length.Load()-e.cursor.Load(), 0)
}

// IsPlaying reports whether the callback is emitting audio.
func (e *Engine) IsPlaying() bool { return e.playing.Load() }

// Format returns the sample rate and channel count of the loaded buffer.
func (e *Engine) Format() (sampleRate, channels int) {
	return int(e.rate.Load()), int(e.channels.Load())
}

// Loads returns how many buffers have been loaded. EndReached carries the
// value current when it fired.
func (e *Engine) Loads() uint64 { return e.loads.Load() }

// BufferedDuration returns Buffered as a duration.
func (e *Engine) BufferedDuration() time.Duration {
	return e.samplesToDuration(e.Buffered())
}

// Position returns the cursor as a duration.
func (e *Engine) Position() time.Duration {
	return e.samplesToDuration(e.Cursor())
}

func (e *Engine) samplesToDuration(samples int64) time.Duration {
	rate, channels := e.Format()
	if rate <= 0 || channels <= 0 {
		return 0
	}
	frames := samples / int64(channels)
	return time.Duration(frames) * time.Second / time.Duration(rate)
}
