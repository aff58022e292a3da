package output

// Signature is the comparable snapshot of an applied output configuration.
// Two equal signatures never require the stream to be rebuilt.
type Signature struct {
	Device     string
	Channels   int
	SampleRate int
	BitDepth   int
}

// SampleRateOnly reports whether s and other differ in nothing but the
// sample rate.
func (s Signature) SampleRateOnly(other Signature) bool {
	return s.SampleRate != other.SampleRate &&
		s.Device == other.Device &&
		s.Channels == other.Channels &&
		s.BitDepth == other.BitDepth
}

// Preference holds the user-pinned output values handed to the player.
// Zero fields follow the source (rate, channels) or the device (bit depth).
type Preference struct {
	Device     string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Apply overrides the source parameters with the pinned values.
func (p Preference) Apply(source StreamConfig) StreamConfig {
	out := source
	if p.SampleRate > 0 {
		out.SampleRate = p.SampleRate
	}
	if p.Channels > 0 {
		out.Channels = p.Channels
	}
	if p.BitDepth > 0 {
		out.BitDepth = p.BitDepth
	}
	return out
}

// SelectConfig picks the stream configuration to open on dev for want.
// An exact supported match wins; otherwise the device default is returned
// with exact=false and the caller accepts the mismatch.
func SelectConfig(dev DeviceInfo, want StreamConfig) (cfg StreamConfig, exact bool) {
	if dev.Supports(want) {
		return want, true
	}
	def := dev.DefaultConfig
	if !def.Valid() && len(dev.Configs) > 0 {
		def = dev.Configs[0]
	}
	if !def.Valid() {
		// Nothing advertised: let the backend try the request as-is.
		return want, false
	}
	return def, false
}
