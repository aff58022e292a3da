package output

import (
	"sync"
)

// FakeHost is an in-memory Host for tests. Nothing is played; tests pull
// samples through the registered fill callback with Pull.
type FakeHost struct {
	mu      sync.Mutex
	devices []DeviceInfo
	openErr error
	opens   []StreamConfig
	current *FakeStream
	closed  bool
}

// Verify FakeHost implements Host at compile time.
var _ Host = (*FakeHost)(nil)

// NewFakeHost creates a fake host with the given devices. With no devices a
// single default device accepting 44.1k and 48k in mono and stereo is used.
func NewFakeHost(devices ...DeviceInfo) *FakeHost {
	if len(devices) == 0 {
		devices = []DeviceInfo{{
			Name:    "fake",
			Default: true,
			Configs: []StreamConfig{
				{SampleRate: 44100, Channels: 1},
				{SampleRate: 44100, Channels: 2},
				{SampleRate: 48000, Channels: 1},
				{SampleRate: 48000, Channels: 2},
			},
			DefaultConfig: StreamConfig{SampleRate: 48000, Channels: 2},
		}}
	}
	return &FakeHost{devices: devices}
}

func (h *FakeHost) Name() string { return "fake" }

func (h *FakeHost) Devices() ([]DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	out := make([]DeviceInfo, len(h.devices))
	copy(out, h.devices)
	return out, nil
}

func (h *FakeHost) Open(device string, cfg StreamConfig, fill FillFunc) (Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.openErr != nil {
		return nil, h.openErr
	}
	dev, _, err := FindDevice(h.devices, device)
	if err != nil {
		return nil, err
	}
	s := &FakeStream{device: dev.Name, cfg: cfg, fill: fill, volume: 1}
	h.opens = append(h.opens, cfg)
	h.current = s
	return s, nil
}

func (h *FakeHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Test helpers

// SetOpenError makes subsequent Open calls fail with err (nil clears it).
func (h *FakeHost) SetOpenError(err error) {
	h.mu.Lock()
	h.openErr = err
	h.mu.Unlock()
}

// SetDevices replaces the advertised devices.
func (h *FakeHost) SetDevices(devices ...DeviceInfo) {
	h.mu.Lock()
	h.devices = devices
	h.mu.Unlock()
}

// Opens returns every configuration passed to a successful Open.
func (h *FakeHost) Opens() []StreamConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]StreamConfig, len(h.opens))
	copy(out, h.opens)
	return out
}

// Current returns the most recently opened stream that is still open.
func (h *FakeHost) Current() *FakeStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil || h.current.Closed() {
		return nil
	}
	return h.current
}

// Pull runs one callback period of frames on the current stream and returns
// the samples it produced. It returns nil when no stream is open.
func (h *FakeHost) Pull(frames int) []float32 {
	s := h.Current()
	if s == nil {
		return nil
	}
	return s.Pull(frames)
}

// FakeStream is the Stream returned by FakeHost.
type FakeStream struct {
	device string
	cfg    StreamConfig
	fill   FillFunc

	mu     sync.Mutex
	volume float64
	closed bool
}

func (s *FakeStream) Device() string       { return s.device }
func (s *FakeStream) Config() StreamConfig { return s.cfg }

func (s *FakeStream) SetVolume(level float64) {
	s.mu.Lock()
	s.volume = ClampLevel(level)
	s.mu.Unlock()
}

// Volume returns the last level set.
func (s *FakeStream) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pull invokes the fill callback for frames frames.
func (s *FakeStream) Pull(frames int) []float32 {
	out := make([]float32, frames*s.cfg.Channels)
	s.fill(out)
	return out
}
