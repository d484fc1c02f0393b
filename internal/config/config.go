package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRescanInterval = 15 * time.Second
	DefaultInputMetric    = "rfdetector_volts"
	DefaultChannelLabel   = "channel"
	DefaultDetector       = "ltc5507"
)

// Config is the top-level configuration for the rfmeter binary.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Meter MeterConfig `yaml:"meter"`
}

// MeterConfig holds all meter settings.
type MeterConfig struct {
	// Input describes where detector voltages are read from.
	Input InputConfig `yaml:"input"`

	// Output describes where converted power readings are written.
	Output OutputConfig `yaml:"output"`

	// RescanInterval is the periodic full re-read of the input file in watch
	// mode. It is a safety net for filesystems where fsnotify events are
	// unreliable (NFS, some container mounts).
	RescanInterval time.Duration `yaml:"rescan_interval"`

	// Channels lists the measurement channels this meter converts. A
	// power/SWR meter typically has two: forward and reflected.
	Channels []Channel `yaml:"channels"`
}

// InputConfig locates the detector-voltage gauge in a Prometheus text
// exposition file written by an external ADC exporter.
type InputConfig struct {
	// Path is the exposition file to read (textfile-collector convention).
	Path string `yaml:"path"`

	// Metric is the gauge family name holding detector voltages.
	Metric string `yaml:"metric"`

	// ChannelLabel is the label whose value selects the channel.
	ChannelLabel string `yaml:"channel_label"`
}

// OutputConfig locates the power exposition file this meter writes.
type OutputConfig struct {
	// Path is the exposition file to write. The write is atomic
	// (temp file + rename) so scrapers never observe a partial file.
	Path string `yaml:"path"`
}

// Channel holds the per-channel calibration scalars. These come from the
// station build: the coupler's measured attenuation and the detector's
// no-signal output voltage.
type Channel struct {
	// ID is a unique, human-readable identifier for this channel,
	// e.g. "forward" or "reflected".
	ID string `yaml:"id"`

	// Detector selects the compiled-in detector calibration. Only "ltc5507"
	// is known today.
	Detector string `yaml:"detector"`

	// CouplerAttenuationDb is the directional coupler's attenuation in dB.
	// Positive means loss, which is what a coupler's sampled port has.
	CouplerAttenuationDb float64 `yaml:"coupler_attenuation_db"`

	// ZeroPowerOffsetVolts is the detector's output voltage with no RF
	// present. It varies per physical sensor and is measured at install time.
	ZeroPowerOffsetVolts float64 `yaml:"zero_power_offset_volts"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyChannelDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Meter: MeterConfig{
			Input: InputConfig{
				Metric:       DefaultInputMetric,
				ChannelLabel: DefaultChannelLabel,
			},
			RescanInterval: DefaultRescanInterval,
		},
	}
}

// applyChannelDefaults fills per-channel defaults, which cannot be
// pre-populated before unmarshal because the channel list length is unknown.
func applyChannelDefaults(cfg *Config) {
	for i := range cfg.Meter.Channels {
		if cfg.Meter.Channels[i].Detector == "" {
			cfg.Meter.Channels[i].Detector = DefaultDetector
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	m := &cfg.Meter
	if m.RescanInterval <= 0 {
		return fmt.Errorf("meter.rescan_interval must be positive")
	}
	if len(m.Channels) == 0 {
		return fmt.Errorf("meter.channels must list at least one channel")
	}
	seen := make(map[string]bool, len(m.Channels))
	for i, ch := range m.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channels[%d]: id is required", i)
		}
		if seen[ch.ID] {
			return fmt.Errorf("channels[%d]: duplicate id %q", i, ch.ID)
		}
		seen[ch.ID] = true
		switch ch.Detector {
		case "ltc5507":
		default:
			return fmt.Errorf("channels[%d] %q: unknown detector %q", i, ch.ID, ch.Detector)
		}
		// The conversion itself is total, but calibration scalars in the
		// config file have to make physical sense.
		if !isFinite(ch.CouplerAttenuationDb) {
			return fmt.Errorf("channels[%d] %q: coupler_attenuation_db must be finite", i, ch.ID)
		}
		if ch.CouplerAttenuationDb < 0 {
			return fmt.Errorf("channels[%d] %q: coupler_attenuation_db must be >= 0 (a coupler is lossy)", i, ch.ID)
		}
		if !isFinite(ch.ZeroPowerOffsetVolts) {
			return fmt.Errorf("channels[%d] %q: zero_power_offset_volts must be finite", i, ch.ID)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
