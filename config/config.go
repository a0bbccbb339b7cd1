// Package config loads conversion settings from YAML.
//
// Priority: defaults, then the YAML file, then VOXCONV_* environment
// overrides for the log level.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/blues/voxconv/fdpsola"
	"github.com/blues/voxconv/mapper"
	"github.com/blues/voxconv/prosody"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvLogLevel overrides Log.Level when set.
const EnvLogLevel = "VOXCONV_LOG_LEVEL"

// Config is the complete configuration file.
type Config struct {
	Mapper    MapperConfig    `yaml:"mapper"`
	Processor ProcessorConfig `yaml:"processor"`
	Prosody   ProsodyConfig   `yaml:"prosody"`
	Log       LogConfig       `yaml:"log"`
}

// MapperConfig selects and blends codebook entries.
type MapperConfig struct {
	K         int     `yaml:"k"`
	Distance  string  `yaml:"distance"`  // euclidean, inverse_harmonic, symmetric_inverse_harmonic, mahalanobis, absolute_value
	Weighting string  `yaml:"weighting"` // exponential, triangle
	Steepness float64 `yaml:"steepness"`
	FreqRange float64 `yaml:"freq_range"` // Hz, 0 for half the sampling rate
	Alpha     float64 `yaml:"alpha"`
	// MatchUsingTarget compares frames with the target side of each entry.
	MatchUsingTarget bool `yaml:"match_using_target"`
}

// ProcessorConfig controls framing and resynthesis.
type ProcessorConfig struct {
	PreCoef                  float64 `yaml:"pre_coef"`
	NumPeriods               int     `yaml:"num_periods"`
	FixedRate                bool    `yaml:"fixed_rate"`
	WindowSize               float64 `yaml:"window_size"` // seconds
	SkipSize                 float64 `yaml:"skip_size"`   // seconds
	TransformUnvoiced        bool    `yaml:"transform_unvoiced"`
	VocalTractTransformation bool    `yaml:"vocal_tract_transformation"`
	SourceEnvelopeFromModel  bool    `yaml:"source_envelope_from_model"`
	ResynthesizeFromSource   bool    `yaml:"resynthesize_from_source"`
	DurationThreshold        float64 `yaml:"duration_threshold"`
	BlockSize                int     `yaml:"block_size"`
	PreselectLabels          bool    `yaml:"preselect_labels"`
	PreselectMinimum         int     `yaml:"preselect_minimum"`
}

// ProsodyConfig holds scale lists spread evenly over each input. A single
// value is a constant scale.
type ProsodyConfig struct {
	Pitch               []float64 `yaml:"pitch"`
	Time                []float64 `yaml:"time"`
	Energy              []float64 `yaml:"energy"`
	VocalTract          []float64 `yaml:"vocal_tract"`
	PitchFromStatistics bool      `yaml:"pitch_from_statistics"`
}

// LogConfig sets the logrus level.
type LogConfig struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error
}

// Default returns the built-in settings.
func Default() *Config {
	mp := mapper.DefaultParams()
	pc := fdpsola.DefaultConfig()
	return &Config{
		Mapper: MapperConfig{
			K:         mp.K,
			Distance:  mp.Distance.String(),
			Weighting: mp.Weighting.String(),
			Steepness: mp.Steepness,
			Alpha:     mp.Alpha,
		},
		Processor: ProcessorConfig{
			PreCoef:                  pc.PreCoef,
			NumPeriods:               pc.NumPeriods,
			WindowSize:               pc.WindowSize,
			SkipSize:                 pc.SkipSize,
			VocalTractTransformation: pc.VocalTractTransformation,
			DurationThreshold:        pc.DurationThreshold,
			BlockSize:                pc.BlockSize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.MapperParams(); err != nil {
		return fmt.Errorf("%w: mapper: %v", ErrInvalidConfig, err)
	}
	if err := c.baseProcessor().Validate(); err != nil {
		return fmt.Errorf("%w: processor: %v", ErrInvalidConfig, err)
	}
	for name, values := range map[string][]float64{
		"pitch":       c.Prosody.Pitch,
		"time":        c.Prosody.Time,
		"energy":      c.Prosody.Energy,
		"vocal_tract": c.Prosody.VocalTract,
	} {
		if _, err := prosody.Uniform(values, 1); err != nil {
			return fmt.Errorf("%w: prosody %s: %v", ErrInvalidConfig, name, err)
		}
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel returns the parsed level, info when unset.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// MapperParams converts the mapper section.
func (c *Config) MapperParams() (mapper.Params, error) {
	d, err := mapper.ParseDistance(c.Mapper.Distance)
	if err != nil {
		return mapper.Params{}, err
	}
	w, err := mapper.ParseWeighting(c.Mapper.Weighting)
	if err != nil {
		return mapper.Params{}, err
	}
	p := mapper.Params{
		K:           c.Mapper.K,
		Distance:    d,
		Weighting:   w,
		Steepness:   c.Mapper.Steepness,
		FreqRange:   c.Mapper.FreqRange,
		Alpha:       c.Mapper.Alpha,
		MatchTarget: c.Mapper.MatchUsingTarget,
	}
	switch {
	case p.K < 1:
		return p, fmt.Errorf("k must be at least 1, got %d", p.K)
	case p.Steepness < 0:
		return p, fmt.Errorf("steepness must be non-negative, got %v", p.Steepness)
	case p.Alpha < 0 || p.Alpha > 1:
		return p, fmt.Errorf("alpha must be in [0,1], got %v", p.Alpha)
	}
	return p, nil
}

// ProcessorConfig converts the processor and prosody sections for an
// input of the given duration (seconds). lpOrder comes from the codebook.
func (c *Config) ProcessorConfig(lpOrder int, duration float64) (fdpsola.Config, error) {
	pc := c.baseProcessor()
	pc.LPOrder = lpOrder
	var err error
	tracks := []struct {
		values []float64
		dst    *prosody.Track
	}{
		{c.Prosody.Pitch, &pc.Scales.Pitch},
		{c.Prosody.Time, &pc.Scales.Time},
		{c.Prosody.Energy, &pc.Scales.Energy},
		{c.Prosody.VocalTract, &pc.Scales.VocalTract},
	}
	for _, tr := range tracks {
		if *tr.dst, err = prosody.Uniform(tr.values, duration); err != nil {
			return fdpsola.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := pc.Validate(); err != nil {
		return fdpsola.Config{}, err
	}
	return pc, nil
}

// baseProcessor maps the processor section with a placeholder LP order.
func (c *Config) baseProcessor() fdpsola.Config {
	p := c.Processor
	return fdpsola.Config{
		LPOrder:                  2,
		PreCoef:                  p.PreCoef,
		NumPeriods:               p.NumPeriods,
		FixedRate:                p.FixedRate,
		WindowSize:               p.WindowSize,
		SkipSize:                 p.SkipSize,
		VocalTractTransformation: p.VocalTractTransformation,
		TransformUnvoiced:        p.TransformUnvoiced,
		SourceEnvelopeFromModel:  p.SourceEnvelopeFromModel,
		ResynthesizeFromSource:   p.ResynthesizeFromSource,
		PreselectLabels:          p.PreselectLabels,
		PreselectMinimum:         p.PreselectMinimum,
		PitchFromStatistics:      c.Prosody.PitchFromStatistics,
		DurationThreshold:        p.DurationThreshold,
		BlockSize:                p.BlockSize,
	}
}
