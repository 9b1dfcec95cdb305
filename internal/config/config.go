package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "tlscore.yaml"

// Config holds all tlscore configuration.
type Config struct {
	// Scoring weights and thresholds
	Scoring ScoringConfig `yaml:"scoring"`

	// Reference solution lookup
	References ReferencesConfig `yaml:"references"`

	// Batch scoring
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ScoringConfig configures the aggregator gates.
type ScoringConfig struct {
	// Keywords searched (case-insensitively) for the explanation heuristic
	ExplanationTerms []string `yaml:"explanation_terms"`
	// Minimum number of distinct keywords for the explanation point
	ExplanationMinTerms int `yaml:"explanation_min_terms"`

	FullCreditF1    float64 `yaml:"full_credit_f1"`    // F1 at or above this earns 2 points
	PartialCreditF1 float64 `yaml:"partial_credit_f1"` // F1 at or above this earns 1 point

	// max_total used when a reference omits scoring.total
	DefaultMaxTotal int `yaml:"default_max_total"`
}

// ReferencesConfig configures where task ids resolve to.
type ReferencesConfig struct {
	Dir string `yaml:"dir"`
}

// BatchConfig configures the concurrent scorer.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultExplanationTerms are the keywords of the explanation heuristic.
var DefaultExplanationTerms = []string{"derived", "rule", "fact", "iteration", "because", "therefore"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	terms := make([]string, len(DefaultExplanationTerms))
	copy(terms, DefaultExplanationTerms)

	return &Config{
		Scoring: ScoringConfig{
			ExplanationTerms:    terms,
			ExplanationMinTerms: 4,
			FullCreditF1:        0.99,
			PartialCreditF1:     0.5,
			DefaultMaxTotal:     7,
		},
		References: ReferencesConfig{
			Dir: "reference_solutions",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// ErrExists is returned by Save when the target exists and overwrite is off.
var ErrExists = errors.New("config file already exists")

const fileHeader = `# tlscore configuration.
# TLSCORE_REFERENCE_DIR, TLSCORE_LOG_LEVEL and TLSCORE_BATCH_WORKERS override these values.
`

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save validates c and writes it to path. An existing file is replaced only
// when overwrite is set.
func (c *Config) Save(path string, overwrite bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("TLSCORE_REFERENCE_DIR"); dir != "" {
		c.References.Dir = dir
	}
	if level := os.Getenv("TLSCORE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if raw := os.Getenv("TLSCORE_BATCH_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			c.Batch.Workers = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	s := c.Scoring
	if len(s.ExplanationTerms) == 0 {
		return fmt.Errorf("scoring.explanation_terms must not be empty")
	}
	if s.ExplanationMinTerms < 0 {
		return fmt.Errorf("scoring.explanation_min_terms must be >= 0, got %d", s.ExplanationMinTerms)
	}
	for name, v := range map[string]float64{
		"full_credit_f1":    s.FullCreditF1,
		"partial_credit_f1": s.PartialCreditF1,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring.%s must be within [0,1], got %v", name, v)
		}
	}
	if s.PartialCreditF1 > s.FullCreditF1 {
		return fmt.Errorf("scoring.partial_credit_f1 (%v) exceeds full_credit_f1 (%v)", s.PartialCreditF1, s.FullCreditF1)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be >= 1, got %d", c.Batch.Workers)
	}
	return nil
}
