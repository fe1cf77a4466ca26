// Package config loads Luciq's configuration surface (§6) from a YAML file,
// in the teacher's style of gopkg.in/yaml.v2 config structs
// (cmd/api/main.go, pkg/core/agent/manager.go) layered with godotenv-sourced
// secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Quality holds C2 thresholds.
type Quality struct {
	Threshold float64 `yaml:"threshold"`
}

// Clustering holds C7 parameters.
type Clustering struct {
	Cut                   float64 `yaml:"cut"`
	UniversalMinPlatforms int     `yaml:"universal_min_platforms"`
	AlignmentWindowDays   int     `yaml:"alignment_window_days"`
}

// Temporal holds C6 parameters.
type Temporal struct {
	Grid   string `yaml:"grid"` // "15m" | "1h" | "1d"
	Window int    `yaml:"window"`
}

// Fusion holds C8 parameters.
type Fusion struct {
	TopK int `yaml:"top_k"`
}

// Credibility holds C3 parameters.
type Credibility struct {
	VerificationAlpha float64            `yaml:"verification_alpha"`
	SeedOverrides     map[string]float64 `yaml:"seed_overrides"`
}

// LLM holds C9's LLM call parameters.
type LLM struct {
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutS    int     `yaml:"timeout_s"`
}

// Conversation holds C9 memory parameters.
type Conversation struct {
	MaxTurnsRetained int `yaml:"max_turns_retained"`
}

// Timeouts holds the per-stage suspension-point timeouts (§5).
type Timeouts struct {
	FetchTimeoutS int `yaml:"fetch_timeout_s"`
	ModelTimeoutS int `yaml:"model_timeout_s"`
	LLMTimeoutS   int `yaml:"llm_timeout_s"`
	StoreTimeoutS int `yaml:"store_timeout_s"`
}

// Config is the full configuration surface enumerated in §6.
type Config struct {
	Quality      Quality      `yaml:"quality"`
	Clustering   Clustering   `yaml:"clustering"`
	Temporal     Temporal     `yaml:"temporal"`
	Fusion       Fusion       `yaml:"fusion"`
	Credibility  Credibility  `yaml:"credibility"`
	LLM          LLM          `yaml:"llm"`
	Conversation Conversation `yaml:"conversation"`
	Timeouts     Timeouts     `yaml:"timeouts"`
	DatabaseURL  string       `yaml:"-"`
	GeminiAPIKey string       `yaml:"-"`
}

// Default returns the configuration with every default from §6 applied.
func Default() Config {
	return Config{
		Quality:    Quality{Threshold: 0.60},
		Clustering: Clustering{Cut: 0.30, UniversalMinPlatforms: 3, AlignmentWindowDays: 14},
		Temporal:   Temporal{Grid: "1h", Window: 48},
		Fusion:     Fusion{TopK: 20},
		Credibility: Credibility{
			VerificationAlpha: 0.20,
			SeedOverrides:     map[string]float64{},
		},
		LLM:          LLM{Provider: "gemini", Temperature: 0.4, MaxTokens: 800, TimeoutS: 45},
		Conversation: Conversation{MaxTurnsRetained: 10},
		Timeouts:     Timeouts{FetchTimeoutS: 30, ModelTimeoutS: 10, LLMTimeoutS: 45, StoreTimeoutS: 5},
	}
}

// Load loads a .env file (if present) for secrets not checked into config,
// then reads a YAML config file at path, applying it over Default(). A
// missing config file is not an error — defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnv(cfg), nil
			}
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}

		overrides, err := loadSeedOverridesHJSON(seedOverridesPath(path))
		if err != nil {
			return cfg, fmt.Errorf("config: loading seed overrides: %w", err)
		}
		if cfg.Credibility.SeedOverrides == nil {
			cfg.Credibility.SeedOverrides = make(map[string]float64)
		}
		for platform, weight := range overrides {
			cfg.Credibility.SeedOverrides[platform] = weight
		}
	}

	return applyEnv(cfg), nil
}

// seedOverridesPath is the hand-edited sidecar next to the main YAML config,
// tolerating comments and trailing commas since it's expected to be tweaked
// by hand between runs (credibility.seed_overrides, §6).
func seedOverridesPath(configPath string) string {
	dir := filepath.Dir(configPath)
	return filepath.Join(dir, "seed_overrides.hjson")
}

// loadSeedOverridesHJSON parses a Human JSON platform->weight map. A missing
// file is not an error — no overrides is the default.
func loadSeedOverridesHJSON(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out map[string]float64
	if err := hjson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyEnv(cfg Config) Config {
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	return cfg
}

// FetchTimeout, ModelTimeout, LLMTimeout, StoreTimeout convert the
// configured second counts to durations for use in context.WithTimeout.
func (c Config) FetchTimeout() time.Duration { return time.Duration(c.Timeouts.FetchTimeoutS) * time.Second }
func (c Config) ModelTimeout() time.Duration { return time.Duration(c.Timeouts.ModelTimeoutS) * time.Second }
func (c Config) LLMTimeout() time.Duration   { return time.Duration(c.Timeouts.LLMTimeoutS) * time.Second }
func (c Config) StoreTimeout() time.Duration { return time.Duration(c.Timeouts.StoreTimeoutS) * time.Second }

// TemporalGrid parses the configured grid string to a duration, defaulting
// to 1h on an unrecognized value.
func (c Config) TemporalGrid() time.Duration {
	switch c.Temporal.Grid {
	case "15m":
		return 15 * time.Minute
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
