// Package miniaudio is the output backend built on malgo (miniaudio).
//
// Unlike the speaker backend it enumerates real playback devices with their
// native formats and opens streams at the requested rate without resampling.
package miniaudio

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/output"
)

const defaultPeriodMS = 20

// Rates tried when a device reports a wildcard native format.
var wildcardRates = []int{44100, 48000, 88200, 96000, 176400, 192000}

// Host wraps a malgo context.
type Host struct {
	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	periodMS int
	log      zerolog.Logger
	closed   bool
}

// Verify Host implements output.Host at compile time.
var _ output.Host = (*Host)(nil)

// New initializes a miniaudio context. periodMS sets the device period;
// zero selects 20ms.
func New(log zerolog.Logger, periodMS int) (*Host, error) {
	if periodMS <= 0 {
		periodMS = defaultPeriodMS
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug().Str("backend", "miniaudio").Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("init miniaudio context: %w", err)
	}
	return &Host{ctx: ctx, periodMS: periodMS, log: log}, nil
}

func (h *Host) Name() string { return "miniaudio" }

// Devices lists playback devices and their native formats.
func (h *Host) Devices() ([]output.DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, output.ErrClosed
	}

	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}

	devices := make([]output.DeviceInfo, 0, len(infos))
	for _, info := range infos {
		full, err := h.ctx.DeviceInfo(malgo.Playback, info.ID, malgo.Shared)
		if err != nil {
			h.log.Debug().Err(err).Str("device", info.Name()).Msg("device info unavailable")
			full = info
		}
		devices = append(devices, convertInfo(&full, info.Name(), info.IsDefault != 0))
	}
	return devices, nil
}

func convertInfo(info *malgo.DeviceInfo, name string, isDefault bool) output.DeviceInfo {
	dev := output.DeviceInfo{Name: name, Default: isDefault}

	count := min(int(info.FormatCount), len(info.Formats))
	for i := range count {
		f := info.Formats[i]
		depth := bitDepth(f.Format)

		rates := []int{int(f.SampleRate)}
		if f.SampleRate == 0 {
			rates = wildcardRates
		}
		channels := []int{int(f.Channels)}
		if f.Channels == 0 {
			channels = []int{1, 2}
		}
		for _, rate := range rates {
			for _, ch := range channels {
				dev.Configs = append(dev.Configs, output.StreamConfig{
					SampleRate: rate,
					Channels:   ch,
					BitDepth:   depth,
				})
			}
		}
	}

	if len(dev.Configs) > 0 {
		dev.DefaultConfig = dev.Configs[0]
	} else {
		dev.DefaultConfig = output.StreamConfig{SampleRate: 48000, Channels: 2}
	}
	return dev
}

func bitDepth(f malgo.FormatType) int {
	switch f {
	case malgo.FormatU8:
		return 8
	case malgo.FormatS16:
		return 16
	case malgo.FormatS24:
		return 24
	case malgo.FormatS32, malgo.FormatF32:
		return 32
	default:
		return 0
	}
}

// Open starts a float32 playback stream on device. miniaudio converts to the
// device's native format.
func (h *Host) Open(device string, cfg output.StreamConfig, fill output.FillFunc) (output.Stream, error) {
	if !cfg.Valid() {
		return nil, fmt.Errorf("invalid stream config %s", cfg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, output.ErrClosed
	}

	s := &stream{cfg: cfg, fill: fill}
	s.setGain(1)

	devCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	devCfg.Playback.Format = malgo.FormatF32
	devCfg.Playback.Channels = uint32(cfg.Channels)
	devCfg.SampleRate = uint32(cfg.SampleRate)
	devCfg.PeriodSizeInMilliseconds = uint32(h.periodMS)

	s.device = "default"
	if device != output.DefaultDevice {
		infos, err := h.ctx.Devices(malgo.Playback)
		if err != nil {
			return nil, fmt.Errorf("enumerate playback devices: %w", err)
		}
		found := false
		for _, info := range infos {
			if info.Name() == device {
				s.id = info.ID
				s.device = device
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", output.ErrNoDevice, device)
		}
		devCfg.Playback.DeviceID = s.id.Pointer()
	}

	dev, err := malgo.InitDevice(h.ctx.Context, devCfg, malgo.DeviceCallbacks{Data: s.onData})
	if err != nil {
		return nil, fmt.Errorf("init device %q: %w", s.device, err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("start device %q: %w", s.device, err)
	}
	s.dev = dev

	return s, nil
}

// Close releases the context. Streams must be closed first.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.ctx.Uninit()
	h.ctx.Free()
	return err
}

type stream struct {
	id     malgo.DeviceID
	device string
	cfg    output.StreamConfig
	fill   output.FillFunc
	dev    *malgo.Device
	gain   atomic.Uint32

	closeOnce sync.Once
}

func (s *stream) Device() string              { return s.device }
func (s *stream) Config() output.StreamConfig { return s.cfg }

func (s *stream) SetVolume(level float64) {
	s.setGain(output.LevelToGain(level))
}

func (s *stream) setGain(g float32) {
	s.gain.Store(math.Float32bits(g))
}

func (s *stream) onData(pOutput, _ []byte, _ uint32) {
	if len(pOutput) < 4 {
		return
	}
	out := unsafe.Slice((*float32)(unsafe.Pointer(&pOutput[0])), len(pOutput)/4)
	s.fill(out)

	gain := math.Float32frombits(s.gain.Load())
	if gain == 1 {
		return
	}
	for i := range out {
		out[i] *= gain
	}
}

func (s *stream) Close() error {
	s.closeOnce.Do(s.dev.Uninit)
	return nil
}
