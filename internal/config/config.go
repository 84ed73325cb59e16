package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds pipeline configuration. Values resolve in three layers:
// defaults, then an optional JSON file, then ADAPTIVE_FACE_* environment
// variables.
type Config struct {
	// FastServiceURL and AccurateServiceURL point at the model server
	// endpoints for the fast and accurate detector backends. Empty leaves
	// the backend unconfigured.
	FastServiceURL     string `json:"fast_service_url"`
	AccurateServiceURL string `json:"accurate_service_url"`

	// PigoCascadePath is the binary cascade file for the classical
	// fallback detector. Empty leaves the fallback unconfigured.
	PigoCascadePath string `json:"pigo_cascade_path"`

	// MinConfidence is the confidence threshold passed to every backend.
	MinConfidence float64 `json:"min_confidence"`

	// MaxFaces caps the filtered candidate list.
	MaxFaces int `json:"max_faces"`

	// GreedyProgressive switches the progressive tier from best-of-all to
	// stop-at-first-non-empty.
	GreedyProgressive bool `json:"greedy_progressive"`

	LogLevel string `json:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		MinConfidence: 0.25,
		MaxFaces:      3,
		LogLevel:      "info",
	}
}

// Load resolves the configuration. path may be empty; a missing file is an
// error only when one was explicitly requested.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from the environment.
func applyEnv(cfg *Config) {
	if val := os.Getenv("ADAPTIVE_FACE_FAST_URL"); val != "" {
		cfg.FastServiceURL = val
	}
	if val := os.Getenv("ADAPTIVE_FACE_ACCURATE_URL"); val != "" {
		cfg.AccurateServiceURL = val
	}
	if val := os.Getenv("ADAPTIVE_FACE_CASCADE"); val != "" {
		cfg.PigoCascadePath = val
	}
	if val := os.Getenv("ADAPTIVE_FACE_MIN_CONFIDENCE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.MinConfidence = parsed
		}
	}
	if val := os.Getenv("ADAPTIVE_FACE_MAX_FACES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			cfg.MaxFaces = parsed
		}
	}
	if val := os.Getenv("ADAPTIVE_FACE_GREEDY_PROGRESSIVE"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			cfg.GreedyProgressive = parsed
		}
	}
	if val := os.Getenv("ADAPTIVE_FACE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1], got %v", c.MinConfidence)
	}
	if c.MaxFaces < 1 {
		return fmt.Errorf("max_faces must be positive, got %d", c.MaxFaces)
	}
	return nil
}
