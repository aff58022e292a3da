// Package output abstracts the audio host: device discovery, stream
// configuration selection and the real-time fill callback.
//
// Backends live in sub-packages (speaker, miniaudio). The player only talks
// to the Host and Stream interfaces defined here.
package output

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevice is returned when the requested device does not exist and
	// the host has no default device either.
	ErrNoDevice = errors.New("output: no such device")

	// ErrClosed is returned by operations on a closed host.
	ErrClosed = errors.New("output: host closed")
)

// DefaultDevice selects the host's default output device.
const DefaultDevice = ""

// StreamConfig describes the parameters of an open output stream.
type StreamConfig struct {
	SampleRate int
	Channels   int
	BitDepth   int // 0 means the backend's native float format
}

// String formats the config as "48000Hz/2ch/24bit".
func (c StreamConfig) String() string {
	if c.BitDepth == 0 {
		return fmt.Sprintf("%dHz/%dch", c.SampleRate, c.Channels)
	}
	return fmt.Sprintf("%dHz/%dch/%dbit", c.SampleRate, c.Channels, c.BitDepth)
}

// Valid returns true when rate and channel count are usable.
func (c StreamConfig) Valid() bool {
	return c.SampleRate > 0 && c.Channels > 0
}

// DeviceInfo describes one output device and the configurations it accepts.
type DeviceInfo struct {
	Name          string
	Default       bool
	Configs       []StreamConfig
	DefaultConfig StreamConfig
}

// Supports reports whether the device lists cfg. A zero bit depth on either
// side matches any bit depth.
func (d DeviceInfo) Supports(cfg StreamConfig) bool {
	for _, c := range d.Configs {
		if c.SampleRate != cfg.SampleRate || c.Channels != cfg.Channels {
			continue
		}
		if c.BitDepth == 0 || cfg.BitDepth == 0 || c.BitDepth == cfg.BitDepth {
			return true
		}
	}
	return false
}

// FillFunc is the real-time callback. It must fill out completely with
// interleaved samples (silence when there is nothing to play) and must not
// block on anything but a short-lived lock.
type FillFunc func(out []float32)

// Stream is an open output stream driving a FillFunc.
type Stream interface {
	Device() string
	Config() StreamConfig
	// SetVolume sets the output level (0.0 to 1.0).
	SetVolume(level float64)
	Close() error
}

// Host enumerates devices and opens streams on them.
type Host interface {
	Name() string
	Devices() ([]DeviceInfo, error)
	Open(device string, cfg StreamConfig, fill FillFunc) (Stream, error)
	Close() error
}

// FindDevice returns the named device, or the default device when name is
// DefaultDevice or unknown. ok is false when the name was not found.
func FindDevice(devices []DeviceInfo, name string) (dev DeviceInfo, ok bool, err error) {
	var fallback *DeviceInfo
	for i := range devices {
		d := &devices[i]
		if name != DefaultDevice && d.Name == name {
			return *d, true, nil
		}
		if d.Default && fallback == nil {
			fallback = d
		}
	}
	if fallback == nil && len(devices) > 0 {
		fallback = &devices[0]
	}
	if fallback == nil {
		return DeviceInfo{}, false, ErrNoDevice
	}
	return *fallback, name == DefaultDevice, nil
}
