// Package speaker is the output backend built on beep's speaker.
//
// The speaker can only be initialized once per process, so the first stream
// fixes the device rate. Streams opened at another rate are resampled, which
// is why the single "default" device advertises every common rate.
package speaker

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/riptide/internal/output"
)

const (
	deviceName        = "default"
	resampleQuality   = 4
	defaultBufferSize = 100 * time.Millisecond
)

// commonRates are advertised for the default device.
var commonRates = []int{22050, 32000, 44100, 48000, 88200, 96000}

// Host drives beep's global speaker.
type Host struct {
	mu          sync.Mutex
	bufferSize  time.Duration
	initialized bool
	rate        beep.SampleRate
	current     *stream
	closed      bool
}

// Verify Host implements output.Host at compile time.
var _ output.Host = (*Host)(nil)

// New creates a speaker host. bufferSize is the speaker buffer duration;
// zero selects 100ms.
func New(bufferSize time.Duration) *Host {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Host{bufferSize: bufferSize}
}

func (h *Host) Name() string { return "speaker" }

// Devices returns the single default device.
func (h *Host) Devices() ([]output.DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, output.ErrClosed
	}

	def := output.StreamConfig{SampleRate: 44100, Channels: 2}
	if h.initialized {
		def.SampleRate = int(h.rate)
	}

	configs := make([]output.StreamConfig, 0, len(commonRates)*2)
	for _, rate := range commonRates {
		configs = append(configs,
			output.StreamConfig{SampleRate: rate, Channels: 1},
			output.StreamConfig{SampleRate: rate, Channels: 2},
		)
	}
	return []output.DeviceInfo{{
		Name:          deviceName,
		Default:       true,
		Configs:       configs,
		DefaultConfig: def,
	}}, nil
}

// Open starts a stream that pulls from fill. The previous stream, if any,
// stops producing sound as soon as the new one starts.
func (h *Host) Open(device string, cfg output.StreamConfig, fill output.FillFunc) (output.Stream, error) {
	if device != output.DefaultDevice && device != deviceName {
		return nil, output.ErrNoDevice
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, output.ErrClosed
	}

	sr := beep.SampleRate(cfg.SampleRate)
	if !h.initialized {
		if err := speaker.Init(sr, sr.N(h.bufferSize)); err != nil {
			return nil, err
		}
		h.initialized = true
		h.rate = sr
	}

	s := &stream{host: h, cfg: cfg, fill: fill}
	var st beep.Streamer = s
	if sr != h.rate {
		st = beep.Resample(resampleQuality, sr, h.rate, s)
	}
	s.volume = &effects.Volume{Streamer: st, Base: 2, Volume: 0, Silent: false}

	speaker.Clear()
	speaker.Play(s.volume)
	h.current = s

	return s, nil
}

// Close stops all playback and releases the speaker.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.initialized {
		speaker.Clear()
		speaker.Close()
	}
	h.current = nil
	return nil
}

// stream adapts a FillFunc to beep.Streamer.
type stream struct {
	host   *Host
	cfg    output.StreamConfig
	fill   output.FillFunc
	volume *effects.Volume
	buf    []float32
}

func (s *stream) Device() string              { return deviceName }
func (s *stream) Config() output.StreamConfig { return s.cfg }

// Stream implements beep.Streamer. It never ends: the fill callback decides
// between audio and silence.
func (s *stream) Stream(samples [][2]float64) (n int, ok bool) {
	channels := s.cfg.Channels
	need := len(samples) * channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]
	s.fill(buf)

	for i := range samples {
		frame := buf[i*channels : (i+1)*channels]
		switch channels {
		case 1:
			samples[i][0] = float64(frame[0])
			samples[i][1] = float64(frame[0])
		default:
			samples[i][0] = float64(frame[0])
			samples[i][1] = float64(frame[1])
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *stream) Err() error { return nil }

// SetVolume sets the level (0.0 to 1.0).
func (s *stream) SetVolume(level float64) {
	level = output.ClampLevel(level)
	speaker.Lock()
	s.volume.Volume = output.LevelToVolume(level)
	s.volume.Silent = level <= 0
	speaker.Unlock()
}

func (s *stream) Close() error {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == s {
		speaker.Clear()
		h.current = nil
	}
	return nil
}
