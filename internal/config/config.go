package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio    AudioConfig   `yaml:"audio"`
	Tunables Tunables      `yaml:"tunables"`
	Elements []string      `yaml:"elements"` // one glyph per visual element
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

type AudioConfig struct {
	DeviceID   string `yaml:"device_id"`
	SampleRate int    `yaml:"sample_rate"`
}

// Tunables are the numeric knobs of the amplitude-to-motion mapping.
// They are read once at session start and held fixed until the next
// session; Update replaces them between sessions.
type Tunables struct {
	SmoothingFactor            float64 `yaml:"smoothing_factor"`
	RotationDivisor            float64 `yaml:"rotation_divisor"`
	MaxAdditionalRotation      float64 `yaml:"max_additional_rotation"`
	BaseScaleMultiplier        float64 `yaml:"base_scale_multiplier"`
	DynamicLerpMin             float64 `yaml:"dynamic_lerp_min"`
	DynamicLerpAudioMultiplier float64 `yaml:"dynamic_lerp_audio_multiplier"`
	FrameRate                  int     `yaml:"frame_rate"`
	MaxFrameDeltaMs            int     `yaml:"max_frame_delta_ms"`
	SilenceThreshold           float64 `yaml:"silence_threshold"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// MaxFrameDelta returns the gap beyond which the animation time base
// freezes instead of jumping.
func (t Tunables) MaxFrameDelta() time.Duration {
	return time.Duration(t.MaxFrameDeltaMs) * time.Millisecond
}

// Default returns the built-in configuration. The motion defaults keep
// drift visible at terminal frame rates while staying stable at low
// amplitude.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 16000,
		},
		Tunables: Tunables{
			SmoothingFactor:            0.3,
			RotationDivisor:            50,
			MaxAdditionalRotation:      180,
			BaseScaleMultiplier:        0.5,
			DynamicLerpMin:             0.05,
			DynamicLerpAudioMultiplier: 0.25,
			FrameRate:                  30,
			MaxFrameDeltaMs:            250,
			SilenceThreshold:           0.02,
		},
		Elements: []string{"●", "◆", "▲", "■", "✦"},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9120",
		},
	}
}

// Load reads the config file at path, or the platform default location
// when path is empty. Missing files yield the defaults; values in the
// file overlay them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = configPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the platform config path.
func (c *Config) Save() error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Update replaces the tunables. Callers must not do this while a
// session is capturing; the session enforces that.
func (c *Config) Update(t Tunables) error {
	tmp := *c
	tmp.Tunables = t
	if err := tmp.validate(); err != nil {
		return err
	}
	c.Tunables = t
	return nil
}

func (c *Config) validate() error {
	t := c.Tunables
	if t.SmoothingFactor <= 0 || t.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing_factor must be in (0,1], got %v", t.SmoothingFactor)
	}
	if t.RotationDivisor <= 0 {
		return fmt.Errorf("rotation_divisor must be positive, got %v", t.RotationDivisor)
	}
	if t.FrameRate <= 0 || t.FrameRate > 240 {
		return fmt.Errorf("frame_rate must be in [1,240], got %d", t.FrameRate)
	}
	if t.DynamicLerpMin < 0 || t.DynamicLerpMin+t.DynamicLerpAudioMultiplier > 1 {
		return fmt.Errorf("lerp bounds must keep the blend factor within [0,1]")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	return nil
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "pulseviz", "config.yaml")
}
