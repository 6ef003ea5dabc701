// Package config loads the engine's tunable constants from a YAML file,
// the way the teacher's own internal/config package does: read the raw
// bytes, expand shell-style environment references, then unmarshal.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"
)

// EngineConfig carries every hyperparameter the n-gram engine would
// otherwise hardcode: decay/prior weights, the fixed-size buffer caps,
// generation defaults, and the model file prefix.
type EngineConfig struct {
	MaxN                  int      `yaml:"max_n"`
	Decay                 float64  `yaml:"decay"`
	PriorWeight           float64  `yaml:"prior_weight"`
	CandidateCap          int      `yaml:"candidate_cap"`
	ContextWindowSize     int      `yaml:"context_window_size"`
	TopKForGeneration     int      `yaml:"top_k_for_generation"`
	HardMaxTokens         int      `yaml:"hard_max_tokens"`
	HardLengthCap         int      `yaml:"hard_length_cap"`
	LowConfidenceCutoff   float64  `yaml:"low_confidence_cutoff"`
	GreedyTemperatureMax  float64  `yaml:"greedy_temperature_max"`
	Terminators           []string `yaml:"terminators"`
	ModelPrefix           string   `yaml:"model_prefix"`
	BloomFalsePositiveFPR float64  `yaml:"bloom_false_positive_rate"`
}

// Config is the top-level document a config file contains.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
}

// Default returns the EngineConfig matching the constants baked into
// internal/lm (spec sections 4.4/4.5/9's named buffer sizes), used when
// no config file is supplied.
func Default() EngineConfig {
	return EngineConfig{
		MaxN:                  3,
		Decay:                 0.85,
		PriorWeight:           0.10,
		CandidateCap:          100,
		ContextWindowSize:     7,
		TopKForGeneration:     10,
		HardMaxTokens:         100,
		HardLengthCap:         25,
		LowConfidenceCutoff:   0.03,
		GreedyTemperatureMax:  0.01,
		Terminators:           []string{"wah", "aduh", "yah", "eh", "hmm", "oh", "astaga"},
		ModelPrefix:           "model",
		BloomFalsePositiveFPR: 0.01,
	}
}

// Load reads path, expands ${VAR}/$VAR environment references, and
// unmarshals the result as YAML. Missing optional fields keep Config's
// zero value; callers wanting the engine defaults should start from
// Default() and override only what the file sets.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	expanded := expandEnvVars(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return &cfg, nil
}

var (
	bracedVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)
	bareVarPattern   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars implements ${VAR}, ${VAR:-default} and $VAR substitution.
// An unset ${VAR} with no default expands to empty; an unset $VAR (bare,
// no braces) is left untouched, matching the teacher's own quirk for the
// two forms.
func expandEnvVars(input string) string {
	expanded := bracedVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := bracedVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		return ""
	})

	return bareVarPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		name := match[1:]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
