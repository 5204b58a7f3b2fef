// Package config holds the layout constants of the window chrome and the
// tunable simulation parameters loaded from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// Samples kept by the playback tap; at least one FFT window
	VisualRingSize = 8192

	// Button dimensions
	ButtonWidth  = 120
	ButtonHeight = 40
	ButtonX      = 20
	ButtonY      = 50

	// Progress bar
	ProgressBarHeight = 16
	ProgressBarMargin = 20
	ProgressBarBottom = 40
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all runtime configuration.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Audio     AudioConfig     `yaml:"audio"`
	Field     FieldConfig     `yaml:"field"`
	Dissolve  DissolveConfig  `yaml:"dissolve"`
	Particles ParticlesConfig `yaml:"particles"`
	Idle      IdleConfig      `yaml:"idle"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ScreenConfig holds the initial window settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	Title     string `yaml:"title"`
}

// AudioConfig describes the analyser feeding the spectrum sampler.
type AudioConfig struct {
	FFTSize     int     `yaml:"fft_size"`     // Power of two; bins = FFTSize/2
	Smoothing   float64 `yaml:"smoothing"`    // Temporal smoothing of bin magnitudes (0..1)
	MinDecibels float64 `yaml:"min_decibels"` // Maps to byte 0
	MaxDecibels float64 `yaml:"max_decibels"` // Maps to byte 255
}

// FieldConfig holds wave field sampling parameters.
type FieldConfig struct {
	Epsilon float64 `yaml:"epsilon"` // Finite-difference step in world units
}

// DissolveConfig holds the attack/release model between sound and silence.
type DissolveConfig struct {
	Threshold float64 `yaml:"threshold"`
	Attack    float64 `yaml:"attack"`  // Alpha gained per tick while sound is present
	Release   float64 `yaml:"release"` // Alpha lost per tick in silence
	Gain      float64 `yaml:"gain"`    // Intensity = min(amplitude*gain, 1)
}

// ParticlesConfig holds particle system parameters.
type ParticlesConfig struct {
	Count           int     `yaml:"count"`
	Workers         int     `yaml:"workers"` // Goroutines for the update pass (<=1 = serial)
	ForceScale      float64 `yaml:"force_scale"`
	DampingSound    float64 `yaml:"damping_sound"`
	DampingSilence  float64 `yaml:"damping_silence"`
	SilenceForce    float64 `yaml:"silence_force"`
	ClusterFraction float64 `yaml:"cluster_fraction"`
	SatelliteChance float64 `yaml:"satellite_chance"`
	VisibilityFloor float64 `yaml:"visibility_floor"`
}

// IdleConfig holds the pulsing glow shown when no source is attached.
type IdleConfig struct {
	GlowRadius float64 `yaml:"glow_radius"` // Fraction of min(width, height)
	GlowAlpha  float64 `yaml:"glow_alpha"`
}

// RenderConfig holds colouring options of the ebiten sink.
type RenderConfig struct {
	TintSaturation float64 `yaml:"tint_saturation"` // 0 = pure white sand
}

// TelemetryConfig holds stats logging parameters.
type TelemetryConfig struct {
	LogInterval int `yaml:"log_interval"` // Ticks between slog stats lines (0 = off)
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults. Panics if they are malformed.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Validate reports every out-of-range value.
func (c *Config) Validate() error {
	var errs []error
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height))
	}
	if n := c.Audio.FFTSize; n < 32 || n&(n-1) != 0 {
		errs = append(errs, fmt.Errorf("audio.fft_size must be a power of two >= 32, got %d", n))
	}
	if c.Audio.Smoothing < 0 || c.Audio.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("audio.smoothing must be in [0,1), got %g", c.Audio.Smoothing))
	}
	if c.Audio.MaxDecibels <= c.Audio.MinDecibels {
		errs = append(errs, errors.New("audio.max_decibels must exceed audio.min_decibels"))
	}
	if c.Field.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("field.epsilon must be positive, got %g", c.Field.Epsilon))
	}
	if c.Dissolve.Attack <= 0 || c.Dissolve.Release <= 0 {
		errs = append(errs, errors.New("dissolve.attack and dissolve.release must be positive"))
	}
	if c.Particles.Count <= 0 {
		errs = append(errs, fmt.Errorf("particles.count must be positive, got %d", c.Particles.Count))
	}
	if c.Particles.ClusterFraction < 0 || c.Particles.ClusterFraction > 1 {
		errs = append(errs, fmt.Errorf("particles.cluster_fraction must be in [0,1], got %g", c.Particles.ClusterFraction))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Dump encodes the effective configuration as YAML, in the same layout
// as defaults.yaml so the output can be edited and passed back to Load.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
