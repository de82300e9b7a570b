// Package config loads Argus's keyed configuration block from a TOML
// file in the working tree, with environment-variable overrides. Adapted
// from CKB's viper-backed LoadConfig/DefaultConfig pattern,
// narrowed from CKB's many backend/query-policy sections to Argus's flat
// key set, and read with BurntSushi/toml directly rather than through
// viper's mapstructure path; viper is kept purely for ARGUS_*-prefixed
// environment overrides layered on top of the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is Argus's configuration surface, field for field.
type Config struct {
	Model               string            `toml:"model"`
	MaxTokens           int               `toml:"max_tokens"`
	StorageDir          string            `toml:"storage_dir"`
	EmbeddingModel      string            `toml:"embedding_model"`
	SearchRelatedIssues bool              `toml:"search_related_issues"`
	ConfidenceThreshold float64           `toml:"confidence_threshold"`
	ReviewDepth         string            `toml:"review_depth"` // quick | standard | deep
	IgnoredPaths        []string          `toml:"ignored_paths"`
	EnableAgentic       bool              `toml:"enable_agentic"`
	ExtraExtensions     map[string]string `toml:"extra_extensions"`

	Index IndexConfig `toml:"index"`
}

// IndexConfig holds the `index.*` subsection.
type IndexConfig struct {
	AnalyzePatterns bool `toml:"analyze_patterns"`
}

// DefaultConfig returns the defaults implied by original_source's
// shared/constants.py, left overridable via configuration rather than
// mandated as exact values.
func DefaultConfig() *Config {
	return &Config{
		MaxTokens:           128_000,
		StorageDir:          ".argus",
		ConfidenceThreshold: 0.7,
		ReviewDepth:         "standard",
		IgnoredPaths:        []string{"vendor/**", "node_modules/**", ".git/**"},
	}
}

// LoadConfig reads argus.toml from repoRoot (if present) into a Config
// seeded with defaults, then applies ARGUS_*-prefixed environment
// overrides.
func LoadConfig(repoRoot string) (*Config, error) {
	cfg := DefaultConfig()

	path := repoRoot + "/argus.toml"
	if repoRoot == "" {
		path = "argus.toml"
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("ARGUS")
	v.AutomaticEnv()

	if val := v.GetString("MODEL"); val != "" {
		cfg.Model = val
	}
	if val := os.Getenv("ARGUS_MAX_TOKENS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.MaxTokens = n
		}
	}
	if val := v.GetString("STORAGE_DIR"); val != "" {
		cfg.StorageDir = val
	}
	if val := v.GetString("EMBEDDING_MODEL"); val != "" {
		cfg.EmbeddingModel = val
	}
	if val := os.Getenv("ARGUS_SEARCH_RELATED_ISSUES"); val != "" {
		cfg.SearchRelatedIssues = isTruthy(val)
	}
	if val := os.Getenv("ARGUS_ENABLE_AGENTIC"); val != "" {
		cfg.EnableAgentic = isTruthy(val)
	}
	if val := v.GetString("REVIEW_DEPTH"); val != "" {
		cfg.ReviewDepth = val
	}
	if val := os.Getenv("ARGUS_CONFIDENCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.ConfidenceThreshold = f
		}
	}
	if val := os.Getenv("ARGUS_IGNORED_PATHS"); val != "" {
		cfg.IgnoredPaths = strings.Split(val, ",")
	}
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// RetrievalBudget returns the token budget allotted to retrieval,
// mirroring DEFAULT_RETRIEVAL_BUDGET_RATIO (0.6) from original_source's
// constants.
func (c *Config) RetrievalBudget() int {
	return int(float64(c.MaxTokens) * 0.6)
}

// GenerationBudget returns the remainder reserved for the model's
// generated review output.
func (c *Config) GenerationBudget() int {
	return c.MaxTokens - c.RetrievalBudget()
}

// Validate checks the configuration's field constraints.
func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		return &ConfigError{Field: "max_tokens", Message: "must be positive"}
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return &ConfigError{Field: "confidence_threshold", Message: "must be in [0,1]"}
	}
	switch c.ReviewDepth {
	case "quick", "standard", "deep":
	default:
		return &ConfigError{Field: "review_depth", Message: "must be one of quick|standard|deep"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
