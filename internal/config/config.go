package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "riptide"

type Config struct {
	// Decode-ahead and backpressure tuning
	Buffering BufferingConfig `koanf:"buffering"`

	// Output device selection (zero / empty / "auto" follows the device)
	Output OutputConfig `koanf:"output"`

	Log LogConfig `koanf:"log"`

	ProgressIntervalMS int   `koanf:"progress_interval_ms"` // position updates while playing (default: 500)
	MPRIS              *bool `koanf:"mpris"`                // expose MPRIS on D-Bus (default: true)
	Notifications      bool  `koanf:"notifications"`        // desktop notifications on track change (default: false)
}

// BufferingConfig holds the player buffer thresholds, all in milliseconds.
type BufferingConfig struct {
	PlayerLowWatermarkMS    int `koanf:"player_low_watermark_ms"`    // resume decoding below this (default: 3000)
	PlayerTargetBufferMS    int `koanf:"player_target_buffer_ms"`    // pause decoding at this (default: 10000)
	PlayerRequestIntervalMS int `koanf:"player_request_interval_ms"` // occupancy poll interval (default: 100)
	DecoderRequestChunkMS   int `koanf:"decoder_request_chunk_ms"`   // background chunk size (default: 1000)
}

// Buffering defaults.
const (
	DefaultLowWatermarkMS    = 3000
	DefaultTargetBufferMS    = 10000
	DefaultRequestIntervalMS = 100
	DefaultRequestChunkMS    = 1000
)

// OutputConfig holds output device preferences.
type OutputConfig struct {
	Backend    string `koanf:"backend"`     // "speaker" or "miniaudio" (default: "speaker")
	Device     string `koanf:"device"`      // device name, "" or "auto" for the default device
	SampleRate int    `koanf:"sample_rate"` // 0 follows the source
	Channels   int    `koanf:"channels"`    // 0 follows the source
	BitDepth   int    `koanf:"bit_depth"`   // 0 uses the device format
}

// OutputSettings is OutputConfig with explicit auto flags.
type OutputSettings struct {
	Device         string
	DeviceAuto     bool
	SampleRate     int
	SampleRateAuto bool
	Channels       int
	ChannelsAuto   bool
	BitDepth       int
	BitDepthAuto   bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`  // default: $XDG_STATE_HOME/riptide/riptide.log
}

// Backend names.
const (
	BackendSpeaker   = "speaker"
	BackendMiniaudio = "miniaudio"
)

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom loads the given files in order (last wins). Missing files are
// skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}
	cfg.Output.Device = strings.TrimSpace(cfg.Output.Device)
	cfg.Output.Backend = strings.ToLower(strings.TrimSpace(cfg.Output.Backend))

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/riptide/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetBufferingConfig returns the buffering configuration with defaults applied.
func (c *Config) GetBufferingConfig() BufferingConfig {
	return c.Buffering.Normalize()
}

// Normalize fills zero or invalid values with defaults so that
// 0 < low < target and both interval and chunk are positive.
func (b BufferingConfig) Normalize() BufferingConfig {
	if b.PlayerTargetBufferMS <= 0 {
		b.PlayerTargetBufferMS = DefaultTargetBufferMS
	}
	if b.PlayerLowWatermarkMS <= 0 || b.PlayerLowWatermarkMS >= b.PlayerTargetBufferMS {
		b.PlayerLowWatermarkMS = min(DefaultLowWatermarkMS, b.PlayerTargetBufferMS/2)
	}
	if b.PlayerLowWatermarkMS <= 0 {
		b.PlayerLowWatermarkMS = 1
		b.PlayerTargetBufferMS = max(b.PlayerTargetBufferMS, 2)
	}
	if b.PlayerRequestIntervalMS <= 0 {
		b.PlayerRequestIntervalMS = DefaultRequestIntervalMS
	}
	if b.DecoderRequestChunkMS <= 0 {
		b.DecoderRequestChunkMS = DefaultRequestChunkMS
	}
	return b
}

// GetOutputConfig returns the output configuration with defaults applied.
func (c *Config) GetOutputConfig() OutputConfig {
	cfg := c.Output
	switch cfg.Backend {
	case BackendSpeaker, BackendMiniaudio:
	default:
		cfg.Backend = BackendSpeaker
	}
	if strings.EqualFold(cfg.Device, "auto") {
		cfg.Device = ""
	}
	if cfg.SampleRate < 0 {
		cfg.SampleRate = 0
	}
	if cfg.Channels < 0 {
		cfg.Channels = 0
	}
	if cfg.BitDepth < 0 {
		cfg.BitDepth = 0
	}
	return cfg
}

// Settings converts zero / empty / "auto" values into auto flags.
func (o OutputConfig) Settings() OutputSettings {
	device := strings.TrimSpace(o.Device)
	if strings.EqualFold(device, "auto") {
		device = ""
	}
	return OutputSettings{
		Device:         device,
		DeviceAuto:     device == "",
		SampleRate:     max(o.SampleRate, 0),
		SampleRateAuto: o.SampleRate <= 0,
		Channels:       max(o.Channels, 0),
		ChannelsAuto:   o.Channels <= 0,
		BitDepth:       max(o.BitDepth, 0),
		BitDepthAuto:   o.BitDepth <= 0,
	}
}

// GetProgressIntervalMS returns the progress interval (default: 500).
func (c *Config) GetProgressIntervalMS() int {
	if c.ProgressIntervalMS <= 0 {
		return 500
	}
	return c.ProgressIntervalMS
}

// MPRISEnabled reports whether the MPRIS bridge should run (default: true).
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	cfg.Level = strings.ToLower(strings.TrimSpace(cfg.Level))
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.StateHome, appName, appName+".log")
	}
	return cfg
}
