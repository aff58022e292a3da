// Package reconcile keeps the applied output configuration in line with
// the user's settings and the detected devices.
//
// The reconciler never opens a stream itself. It computes the effective
// output signature, and when that changes it tells the playback actor to
// reconfigure the player, waiting for a pause or the end of a track when
// something is playing.
package reconcile

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/output"
)

// Effective resolves settings against the detected devices. Pinned values
// win; auto values come from the selected device's default configuration.
func Effective(settings config.OutputSettings, devices []output.DeviceInfo) (output.Signature, output.Preference) {
	pref := output.Preference{}
	if !settings.DeviceAuto {
		pref.Device = settings.Device
	}
	if !settings.SampleRateAuto {
		pref.SampleRate = settings.SampleRate
	}
	if !settings.ChannelsAuto {
		pref.Channels = settings.Channels
	}
	if !settings.BitDepthAuto {
		pref.BitDepth = settings.BitDepth
	}

	var detected output.DeviceInfo
	if dev, _, err := output.FindDevice(devices, pref.Device); err == nil {
		detected = dev
	}

	sig := output.Signature{
		Device:     detected.Name,
		Channels:   detected.DefaultConfig.Channels,
		SampleRate: detected.DefaultConfig.SampleRate,
		BitDepth:   detected.DefaultConfig.BitDepth,
	}
	if pref.Device != "" {
		sig.Device = pref.Device
	}
	if pref.Channels > 0 {
		sig.Channels = pref.Channels
	}
	if pref.SampleRate > 0 {
		sig.SampleRate = pref.SampleRate
	}
	if pref.BitDepth > 0 {
		sig.BitDepth = pref.BitDepth
	}
	return sig, pref
}

// Reconciler is the decision logic. It is not safe for concurrent use; the
// actor owns it.
type Reconciler struct {
	log zerolog.Logger

	settings     config.OutputSettings
	haveSettings bool
	devices      []output.DeviceInfo
	haveDevices  bool
	busy         bool

	applied    output.Signature
	hasApplied bool
	pending    bool
}

// New creates a reconciler with nothing applied yet.
func New(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Applied returns the applied signature. ok is false before the first
// snapshot.
func (r *Reconciler) Applied() (sig output.Signature, ok bool) {
	return r.applied, r.hasApplied
}

// Pending reports whether a change is waiting for playback to go idle.
func (r *Reconciler) Pending() bool { return r.pending }

// Handle updates the reconciler with msg and returns the messages to
// publish.
func (r *Reconciler) Handle(msg bus.Message) []bus.Message {
	switch m := msg.(type) {
	case bus.ConfigChanged:
		r.settings = m.Output
		r.haveSettings = true
	case bus.AudioDevicesDetected:
		r.devices = m.Devices
		r.haveDevices = true
	case bus.PlaybackStateChanged:
		// Paused counts as idle: a rebuild is inaudible there.
		busy := m.State == bus.StatePlaying || m.State == bus.StateBuffering
		if busy == r.busy {
			return nil
		}
		r.busy = busy
		if busy || !r.pending {
			return nil
		}
	default:
		return nil
	}
	return r.evaluate()
}

func (r *Reconciler) evaluate() []bus.Message {
	// The first signature is only known once both inputs arrived.
	if !r.haveSettings || !r.haveDevices {
		return nil
	}

	sig, pref := Effective(r.settings, r.devices)
	if !r.hasApplied {
		// The player was opened from the same settings at startup.
		r.applied, r.hasApplied = sig, true
		r.log.Debug().Interface("signature", sig).Msg("output signature snapshot")
		return nil
	}
	if sig == r.applied {
		r.pending = false
		return nil
	}
	if r.busy {
		if !r.pending {
			r.log.Info().Interface("signature", sig).Msg("output change deferred until playback is idle")
		}
		r.pending = true
		return nil
	}

	prev := r.applied
	r.applied = sig
	r.pending = false

	if prev.SampleRateOnly(sig) {
		r.log.Info().Int("from", prev.SampleRate).Int("to", sig.SampleRate).Msg("output sample rate changed")
		return []bus.Message{bus.AudioSampleRateChanged{
			Previous:   prev.SampleRate,
			Current:    sig.SampleRate,
			Preference: pref,
		}}
	}
	r.log.Info().Interface("from", prev).Interface("to", sig).Msg("output changed")
	return []bus.Message{bus.AudioOutputChanged{Previous: prev, Current: sig, Preference: pref}}
}

// Actor runs a Reconciler on the bus.
type Actor struct {
	log zerolog.Logger
	r   *Reconciler
}

var _ actor.Actor = (*Actor)(nil)

// NewActor creates the reconciler actor. The applied signature survives
// restarts.
func NewActor(log zerolog.Logger) *Actor {
	return &Actor{log: log, r: New(log)}
}

func (a *Actor) Name() string { return "reconcile" }

func (a *Actor) Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	return actor.Consume(ctx, a.log, rx, func(_ context.Context, msg bus.Message) error {
		for _, out := range a.r.Handle(msg) {
			_ = tx.Send(out)
		}
		return nil
	})
}
