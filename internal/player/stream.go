package player

import (
	"fmt"

	"github.com/llehouerou/riptide/internal/output"
)

// rebuild opens a stream for want on the preferred device and then releases
// the previous one. On failure the previous stream keeps playing.
func (e *Engine) rebuild(want output.StreamConfig, announce bool) error {
	devices, err := e.host.Devices()
	if err != nil {
		return e.deviceError(fmt.Errorf("list devices: %w", err))
	}
	dev, found, err := output.FindDevice(devices, e.pref.Device)
	if err != nil {
		return e.deviceError(err)
	}
	if !found && e.pref.Device != output.DefaultDevice {
		e.log.Warn().
			Str("device", e.pref.Device).
			Str("fallback", dev.Name).
			Msg("output device not found, using default")
	}

	cfg, exact := output.SelectConfig(dev, want)
	if !exact {
		e.log.Warn().
			Str("device", dev.Name).
			Stringer("requested", want).
			Stringer("using", cfg).
			Msg("no exact output config, falling back to device default")
	}

	// Silence the old stream as soon as the new one may start pulling.
	prevGen := e.gen.Load()
	gen := e.gen.Add(1)
	channels := cfg.Channels
	stream, err := e.host.Open(dev.Name, cfg, func(out []float32) {
		e.fill(out, gen, channels)
	})
	if err != nil {
		e.gen.Store(prevGen)
		return e.deviceError(fmt.Errorf("open %s on %q: %w", cfg, dev.Name, err))
	}
	stream.SetVolume(e.volume)

	old := e.stream
	e.stream = stream
	e.requested = want
	if old != nil {
		if err := old.Close(); err != nil {
			e.log.Debug().Err(err).Msg("close previous output stream")
		}
	}

	e.log.Info().
		Str("device", stream.Device()).
		Stringer("config", cfg).
		Bool("exact", exact).
		Msg("output stream opened")

	if announce {
		e.emit(StreamRebuilt{Device: stream.Device(), Config: cfg, Exact: exact})
	}
	return nil
}

func (e *Engine) deviceError(err error) error {
	e.emit(DeviceError{Err: err})
	return err
}
