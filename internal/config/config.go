// Package config loads the tally configuration file: anomaly
// thresholds and the externally authored recommendation text that is
// attached to reports verbatim.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/tally/internal/deviation"
)

// Recommendations holds the per-section recommendation strings.
// The engine never generates or edits these; they pass through to
// the report unchanged.
type Recommendations struct {
	// Passed is attached to the passed-tests section.
	Passed []string `yaml:"passed"`

	// Failed is attached to the failed-tests section.
	Failed []string `yaml:"failed"`
}

// Config is the full tally configuration.
type Config struct {
	// Thresholds are the deviation analyzer cut points.
	Thresholds deviation.Thresholds `yaml:"thresholds"`

	// Recommendations is the opaque reviewer-supplied text.
	Recommendations Recommendations `yaml:"recommendations"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{Thresholds: deviation.DefaultThresholds()}
}

// Load reads and parses a YAML config file. Omitted threshold
// values fall back to the defaults; unknown keys are an error so
// typos do not silently disable a cut point.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	var raw struct {
		Thresholds struct {
			HighCutPercent *float64 `yaml:"high_cut_percent"`
			LowCutPercent  *float64 `yaml:"low_cut_percent"`
			SigmaMultiple  *float64 `yaml:"sigma_multiple"`
		} `yaml:"thresholds"`
		Recommendations Recommendations `yaml:"recommendations"`
	}

	dec := newStrictDecoder(data)
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if raw.Thresholds.HighCutPercent != nil {
		cfg.Thresholds.HighCutPercent = *raw.Thresholds.HighCutPercent
	}
	if raw.Thresholds.LowCutPercent != nil {
		cfg.Thresholds.LowCutPercent = *raw.Thresholds.LowCutPercent
	}
	if raw.Thresholds.SigmaMultiple != nil {
		cfg.Thresholds.SigmaMultiple = *raw.Thresholds.SigmaMultiple
	}
	cfg.Recommendations = raw.Recommendations

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func newStrictDecoder(data []byte) *yaml.Decoder {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec
}

func validate(cfg Config) error {
	t := cfg.Thresholds
	if t.LowCutPercent < 0 || t.HighCutPercent < 0 {
		return fmt.Errorf("threshold cut points must be non-negative (low=%v high=%v)",
			t.LowCutPercent, t.HighCutPercent)
	}
	if t.LowCutPercent >= t.HighCutPercent {
		return fmt.Errorf("low cut %v must be below high cut %v",
			t.LowCutPercent, t.HighCutPercent)
	}
	if t.SigmaMultiple < 0 {
		return fmt.Errorf("sigma multiple must be non-negative, got %v", t.SigmaMultiple)
	}
	return nil
}
