// Package config loads process configuration from the environment and the
// analysis parameters from a YAML file. Statistical thresholds are empirical,
// experiment-specific choices, so they always come from the caller's config
// rather than constants.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/ports"
)

// Config represents the process-level configuration from the environment.
type Config struct {
	DatabaseURL string
	ServerPort  string
}

// Load reads process configuration, sourcing a .env file when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServerPort:  os.Getenv("PORT"),
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	return cfg, nil
}

// FilterConfig holds the presence/contamination filter parameters.
type FilterConfig struct {
	Threshold      float64  `yaml:"threshold"`
	MinPrevalence  int      `yaml:"min_prevalence"`
	ControlSubject string   `yaml:"control_subject"`
	ExpectedTaxa   []string `yaml:"expected_taxa"`
}

// EngineConfig holds the group-comparison parameters.
type EngineConfig struct {
	Strategy          string   `yaml:"strategy"`
	Groups            []string `yaml:"groups"`
	Alpha             float64  `yaml:"alpha"`
	MinPerGroup       int      `yaml:"min_per_group"`
	MinSubjects       int      `yaml:"min_subjects"`
	ExpectedCellCount int      `yaml:"expected_cell_count"`
	EnumerationLimit  int      `yaml:"enumeration_limit"`
	Workers           int      `yaml:"workers"`
}

// ScoringConfig selects the scoring method.
type ScoringConfig struct {
	Method      string  `yaml:"method"`
	Pseudocount float64 `yaml:"pseudocount"`
}

// AnalysisConfig is the full per-analysis parameter file.
type AnalysisConfig struct {
	Filter  FilterConfig  `yaml:"filter"`
	Engine  EngineConfig  `yaml:"engine"`
	Scoring ScoringConfig `yaml:"scoring"`
}

// LoadAnalysis parses and validates a YAML analysis config.
func LoadAnalysis(path string) (*AnalysisConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis config: %w", err)
	}
	var cfg AnalysisConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing analysis config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configs that cannot drive an analysis.
func (c *AnalysisConfig) Validate() error {
	switch compare.Strategy(c.Engine.Strategy) {
	case compare.StrategyFactorial, compare.StrategyPermutation:
	default:
		return fmt.Errorf("engine.strategy must be %q or %q, got %q",
			compare.StrategyFactorial, compare.StrategyPermutation, c.Engine.Strategy)
	}
	if len(c.Engine.Groups) != 2 || c.Engine.Groups[0] == c.Engine.Groups[1] {
		return fmt.Errorf("engine.groups must name two distinct condition levels")
	}
	if c.Engine.Alpha <= 0 || c.Engine.Alpha >= 1 {
		return fmt.Errorf("engine.alpha must lie in (0,1), got %g", c.Engine.Alpha)
	}
	switch ports.ScoreMethod(c.Scoring.Method) {
	case ports.MethodPalm, ports.MethodKau, ports.MethodPositiveProbability, ports.MethodProbabilityRatio:
	default:
		return fmt.Errorf("unknown scoring.method %q", c.Scoring.Method)
	}
	if c.Filter.Threshold < 0 {
		return fmt.Errorf("filter.threshold must not be negative")
	}
	if c.Filter.MinPrevalence < 0 {
		return fmt.Errorf("filter.min_prevalence must not be negative")
	}
	return nil
}
