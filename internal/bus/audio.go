package bus

import (
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/output"
)

// AudioDevicesDetected carries the output devices found on the host.
type AudioDevicesDetected struct {
	Backend string
	Devices []output.DeviceInfo
}

// AudioOutputChanged is the full delta broadcast after the applied output
// signature changed in more than its sample rate.
type AudioOutputChanged struct {
	Previous   output.Signature
	Current    output.Signature
	Preference output.Preference
}

// AudioSampleRateChanged is the narrow path: only the sample rate moved.
type AudioSampleRateChanged struct {
	Previous   int
	Current    int
	Preference output.Preference
}

// AudioStreamRebuilt is sent after the player reopened its output stream.
type AudioStreamRebuilt struct {
	Device string
	Config output.StreamConfig
	Exact  bool
}

// ConfigChanged is published whenever the effective configuration changes,
// including once at startup.
type ConfigChanged struct {
	Output    config.OutputSettings
	Buffering config.BufferingConfig
}

func (AudioDevicesDetected) Namespace() Namespace   { return NamespaceAudio }
func (AudioOutputChanged) Namespace() Namespace     { return NamespaceAudio }
func (AudioSampleRateChanged) Namespace() Namespace { return NamespaceAudio }
func (AudioStreamRebuilt) Namespace() Namespace     { return NamespaceAudio }
func (ConfigChanged) Namespace() Namespace          { return NamespaceConfig }
