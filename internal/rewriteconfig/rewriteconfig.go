// Package rewriteconfig loads and merges recut's configuration: a CLI
// layer, a run-specific custom config file, a local repo config file, the
// process environment, and a user-global config file, in that precedence
// order, following the teacher's viper-backed mapstructure pattern
// generalized with a provenance map recording which layer supplied each
// field (§9's dynamic-configuration-with-overrides design note).
package rewriteconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors, mirroring the teacher's Err* convention.
var (
	ErrInvalidChunkingLevel    = errors.New("invalid chunking level")
	ErrInvalidAggression       = errors.New("invalid aggression level")
	ErrInvalidFallback         = errors.New("invalid fallback strategy")
	ErrInvalidGroupingStrategy = errors.New("invalid grouping strategy")
	ErrInvalidMinimumCommitSize = errors.New("minimum commit size must be positive")
)

// Default configuration values.
const (
	DefaultChunkingLevel     = "all_files"
	DefaultSecretAggression  = "standard"
	DefaultRelevanceAggression = "none"
	DefaultFallback          = "by_file_path"
	DefaultGroupingStrategy  = "brute_force"
	DefaultMinimumCommitSize = 1
	DefaultConcurrency       = 4
	DefaultDiffContext       = 3
)

// Config is recut's fully-resolved run configuration.
type Config struct {
	ChunkingLevel       string `mapstructure:"chunking_level"`
	SecretAggression    string `mapstructure:"secret_aggression"`
	RelevanceAggression string `mapstructure:"relevance_aggression"`
	FallbackStrategy    string `mapstructure:"fallback_strategy"`
	GroupingStrategy    string `mapstructure:"grouping_strategy"`
	MinimumCommitSize   int    `mapstructure:"minimum_commit_size"`
	Concurrency         int    `mapstructure:"concurrency"`
	DiffContext         int    `mapstructure:"diff_context"`
	Intent              string `mapstructure:"intent"`
	Provider            string `mapstructure:"provider"`
	Model               string `mapstructure:"model"`
	CustomLanguageConfig string `mapstructure:"custom_language_config"`
	IgnorePrefixes      []string `mapstructure:"ignore_prefixes"`
}

// Provenance records, per dotted field key, which layer supplied the final
// value: "cli", "custom", "local", "env", "global", or "default".
type Provenance map[string]string

// Layers names viper's config layers in descending precedence.
const (
	layerCLI    = "cli"
	layerCustom = "custom"
	layerLocal  = "local"
	layerEnv    = "env"
	layerGlobal = "global"
)

// Load merges configuration from CLI flags, an explicit custom config
// path, the repo-local config file, environment variables, and the
// user-global config file, in that precedence order, and returns the
// resolved Config plus a field-level provenance map.
func Load(cliFlags map[string]any, customConfigPath, localConfigPath, globalConfigPath string) (*Config, Provenance, error) {
	v := viper.New()
	setDefaults(v)

	prov := Provenance{}
	for key := range defaultValues {
		prov[key] = "default"
	}

	if globalConfigPath != "" {
		if err := mergeLayer(v, globalConfigPath, prov, layerGlobal); err != nil {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix("RECUT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key := range defaultValues {
		if v.InConfig(key) {
			continue
		}

		if envValueSet(v, key) {
			prov[key] = layerEnv
		}
	}

	if localConfigPath != "" {
		if err := mergeLayer(v, localConfigPath, prov, layerLocal); err != nil {
			return nil, nil, err
		}
	}

	if customConfigPath != "" {
		if err := mergeLayer(v, customConfigPath, prov, layerCustom); err != nil {
			return nil, nil, err
		}
	}

	for key, val := range cliFlags {
		v.Set(key, val)
		prov[key] = layerCLI
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("rewriteconfig: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, nil, fmt.Errorf("rewriteconfig: invalid configuration: %w", err)
	}

	return &cfg, prov, nil
}

func mergeLayer(v *viper.Viper, path string, prov Provenance, layer string) error {
	if path == "" {
		return nil
	}

	layerViper := viper.New()
	layerViper.SetConfigFile(path)

	if err := layerViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("rewriteconfig: reading %s config %s: %w", layer, path, err)
	}

	for _, key := range layerViper.AllKeys() {
		v.Set(key, layerViper.Get(key))
		prov[key] = layer
	}

	return nil
}

func envValueSet(v *viper.Viper, key string) bool {
	envKey := "RECUT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))

	return v.IsSet(key) && v.GetString(key) != "" && envKeyExists(envKey)
}

func envKeyExists(envKey string) bool {
	_, ok := os.LookupEnv(envKey)

	return ok
}

var defaultValues = map[string]any{
	"chunking_level":         DefaultChunkingLevel,
	"secret_aggression":      DefaultSecretAggression,
	"relevance_aggression":   DefaultRelevanceAggression,
	"fallback_strategy":      DefaultFallback,
	"grouping_strategy":      DefaultGroupingStrategy,
	"minimum_commit_size":    DefaultMinimumCommitSize,
	"concurrency":            DefaultConcurrency,
	"diff_context":           DefaultDiffContext,
	"intent":                 "",
	"provider":               "anthropic",
	"model":                  "",
	"custom_language_config": "",
	"ignore_prefixes":        []string{},
}

func setDefaults(v *viper.Viper) {
	for key, val := range defaultValues {
		v.SetDefault(key, val)
	}
}

var validChunkingLevels = map[string]bool{"none": true, "full_files": true, "all_files": true}

var validAggressionLevels = map[string]bool{"none": true, "safe": true, "standard": true, "strict": true}

var validFallbackStrategies = map[string]bool{
	"all_together": true, "by_file_path": true, "by_file_name": true, "by_file_extension": true, "all_alone": true,
}

var validGroupingStrategies = map[string]bool{"brute_force": true, "embed_cluster": true}

func validate(cfg *Config) error {
	if !validChunkingLevels[cfg.ChunkingLevel] {
		return fmt.Errorf("%w: %q", ErrInvalidChunkingLevel, cfg.ChunkingLevel)
	}

	if !validAggressionLevels[cfg.SecretAggression] || !validAggressionLevels[cfg.RelevanceAggression] {
		return fmt.Errorf("%w: secret=%q relevance=%q", ErrInvalidAggression, cfg.SecretAggression, cfg.RelevanceAggression)
	}

	if !validFallbackStrategies[cfg.FallbackStrategy] {
		return fmt.Errorf("%w: %q", ErrInvalidFallback, cfg.FallbackStrategy)
	}

	if !validGroupingStrategies[cfg.GroupingStrategy] {
		return fmt.Errorf("%w: %q", ErrInvalidGroupingStrategy, cfg.GroupingStrategy)
	}

	if cfg.MinimumCommitSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinimumCommitSize, cfg.MinimumCommitSize)
	}

	return nil
}
