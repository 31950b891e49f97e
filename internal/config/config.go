// Package config defines the configuration surface consumed by the
// normalization pipeline and its surrounding glue.
//
// Configuration is an explicit value object passed into construction; there
// are no process-wide singletons. Out-of-range values are rejected up front
// by Validate so they are never discovered mid-run.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Config holds every tunable the pipeline consumes.
type Config struct {
	Paper   PaperConfig   `yaml:"paper"`
	DPI     DPIConfig     `yaml:"dpi"`
	Enhance EnhanceConfig `yaml:"enhance"`
	Match   MatchConfig   `yaml:"match"`
	Batch   BatchConfig   `yaml:"batch"`
	Vision  VisionConfig  `yaml:"vision"`
}

// PaperConfig describes the target paper format in millimeters.
type PaperConfig struct {
	WidthMM     float64 `yaml:"width_mm" validate:"gt=0"`
	HeightMM    float64 `yaml:"height_mm" validate:"gt=0"`
	ToleranceMM float64 `yaml:"tolerance_mm" validate:"gt=0"`
}

// DPIConfig bounds the acceptable scan resolution. Hints outside
// [Min, Max] are replaced with Standard before any measurement.
type DPIConfig struct {
	Min      int `yaml:"min" validate:"gt=0"`
	Max      int `yaml:"max" validate:"gt=0"`
	Standard int `yaml:"standard" validate:"gt=0"`
}

// EnhanceConfig carries the per-stage enhancer switches and parameters.
// Stages can be disabled individually but never reordered.
type EnhanceConfig struct {
	Contrast ContrastConfig `yaml:"contrast"`
	Smooth   SmoothConfig   `yaml:"smooth"`
	Sharpen  SharpenConfig  `yaml:"sharpen"`
	Gamma    GammaConfig    `yaml:"gamma"`
}

// ContrastConfig controls the adaptive local contrast equalization stage.
type ContrastConfig struct {
	Enabled   bool    `yaml:"enabled"`
	ClipLimit float64 `yaml:"clip_limit" validate:"gte=1"`
	GridSize  int     `yaml:"grid_size" validate:"gte=1"`
}

// SmoothConfig controls the edge-preserving smoothing stage.
type SmoothConfig struct {
	Enabled bool `yaml:"enabled"`
	Radius  int  `yaml:"radius" validate:"gte=0"`
}

// SharpenConfig controls the unsharp-mask stage.
type SharpenConfig struct {
	Enabled bool    `yaml:"enabled"`
	Radius  float64 `yaml:"radius" validate:"gte=0"`
	Amount  float64 `yaml:"amount" validate:"gte=0"`
}

// GammaConfig controls the final global gamma pass.
type GammaConfig struct {
	Enabled bool    `yaml:"enabled"`
	Value   float64 `yaml:"value" validate:"gt=0"`
}

// MatchConfig controls template selection.
type MatchConfig struct {
	// Threshold is the similarity floor. A candidate matches only when its
	// score strictly exceeds this value.
	Threshold float64 `yaml:"threshold" validate:"gte=0,lt=1"`
}

// BatchConfig controls the directory batch runner.
type BatchConfig struct {
	Workers       int `yaml:"workers" validate:"gte=1"`
	RetryAttempts int `yaml:"retry_attempts" validate:"gte=0"`
}

// VisionConfig points at the external document-understanding service.
// OCRLanguage selects the Tesseract language for the local fallback used
// when no endpoint is configured.
type VisionConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	OCRLanguage string        `yaml:"ocr_language"`
}

// Default returns the stock configuration: A4 paper with a 5 mm tolerance,
// a 150-600 DPI band around a 300 DPI reference, all enhancer stages on,
// and the 0.75 match threshold.
func Default() *Config {
	return &Config{
		Paper: PaperConfig{
			WidthMM:     210,
			HeightMM:    297,
			ToleranceMM: 5,
		},
		DPI: DPIConfig{
			Min:      150,
			Max:      600,
			Standard: 300,
		},
		Enhance: EnhanceConfig{
			Contrast: ContrastConfig{Enabled: true, ClipLimit: 2.0, GridSize: 8},
			Smooth:   SmoothConfig{Enabled: true, Radius: 3},
			Sharpen:  SharpenConfig{Enabled: true, Radius: 1.0, Amount: 0.5},
			Gamma:    GammaConfig{Enabled: true, Value: 1.1},
		},
		Match: MatchConfig{
			Threshold: 0.75,
		},
		Batch: BatchConfig{
			Workers:       4,
			RetryAttempts: 2,
		},
		Vision: VisionConfig{
			Timeout:     30 * time.Second,
			OCRLanguage: "eng",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate rejects out-of-range values. It is called at pipeline
// construction time; a non-nil error there is fatal.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Cross-field checks the struct tags cannot express.
	if c.DPI.Min > c.DPI.Max {
		return fmt.Errorf("invalid configuration: dpi.min (%d) exceeds dpi.max (%d)", c.DPI.Min, c.DPI.Max)
	}
	if c.DPI.Standard < c.DPI.Min || c.DPI.Standard > c.DPI.Max {
		return fmt.Errorf("invalid configuration: dpi.standard (%d) outside [%d, %d]", c.DPI.Standard, c.DPI.Min, c.DPI.Max)
	}

	return nil
}
