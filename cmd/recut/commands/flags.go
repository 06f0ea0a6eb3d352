package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recut-dev/recut/internal/rewriteconfig"
	"github.com/recut-dev/recut/internal/rewritelog"
)

// engineFlags holds every rewrite-engine tunable a subcommand exposes,
// layered by rewriteconfig.Load on top of config files and the environment.
type engineFlags struct {
	chunkingLevel        string
	secretAggression     string
	relevanceAggression  string
	fallbackStrategy     string
	groupingStrategy     string
	minimumCommitSize    int
	concurrency          int
	diffContext          int
	intent               string
	provider             string
	model                string
	customLanguageConfig string
	ignorePrefixes       []string
	config               string
}

// registerEngineFlags attaches the rewrite-engine flags to cmd and returns
// the struct they're bound to.
func registerEngineFlags(cmd *cobra.Command) *engineFlags {
	f := &engineFlags{}

	cmd.Flags().StringVar(&f.chunkingLevel, "chunking-level", "", "none, full_files, or all_files")
	cmd.Flags().StringVar(&f.secretAggression, "secret-aggression", "", "none, safe, standard, or strict")
	cmd.Flags().StringVar(&f.relevanceAggression, "relevance-aggression", "", "none, safe, standard, or strict")
	cmd.Flags().StringVar(&f.fallbackStrategy, "fallback-strategy", "", "all_together, by_file_path, by_file_name, by_file_extension, or all_alone")
	cmd.Flags().StringVar(&f.groupingStrategy, "grouping-strategy", "", "brute_force or embed_cluster")
	cmd.Flags().IntVar(&f.minimumCommitSize, "minimum-commit-size", 0, "merge groups below this many total changed lines")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "bounded-concurrency cap for batched LLM/embedding calls")
	cmd.Flags().IntVar(&f.diffContext, "diff-context", 0, "lines of context requested from git diff")
	cmd.Flags().StringVar(&f.intent, "intent", "", "user-stated intent guiding relevance filtering and commit messages")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&f.model, "model", "", "LLM model identifier")
	cmd.Flags().StringVar(&f.customLanguageConfig, "custom-language-config", "", "path to a JSON file overriding tree-sitter query patterns by language")
	cmd.Flags().StringSliceVar(&f.ignorePrefixes, "ignore", nil, "hash prefixes clean must never rewrite")
	cmd.Flags().StringVar(&f.config, "config", "", "path to a run-specific config file")

	return f
}

// cliOverrides builds the highest-precedence rewriteconfig layer: only
// flags the user actually set on the command line, keyed by the same
// mapstructure tags as rewriteconfig.Config.
func (f *engineFlags) cliOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}

	setIfChanged := func(name, key string, val any) {
		if cmd.Flags().Changed(name) {
			overrides[key] = val
		}
	}

	setIfChanged("chunking-level", "chunking_level", f.chunkingLevel)
	setIfChanged("secret-aggression", "secret_aggression", f.secretAggression)
	setIfChanged("relevance-aggression", "relevance_aggression", f.relevanceAggression)
	setIfChanged("fallback-strategy", "fallback_strategy", f.fallbackStrategy)
	setIfChanged("grouping-strategy", "grouping_strategy", f.groupingStrategy)
	setIfChanged("minimum-commit-size", "minimum_commit_size", f.minimumCommitSize)
	setIfChanged("concurrency", "concurrency", f.concurrency)
	setIfChanged("diff-context", "diff_context", f.diffContext)
	setIfChanged("intent", "intent", f.intent)
	setIfChanged("provider", "provider", f.provider)
	setIfChanged("model", "model", f.model)
	setIfChanged("custom-language-config", "custom_language_config", f.customLanguageConfig)
	setIfChanged("ignore", "ignore_prefixes", f.ignorePrefixes)

	return overrides
}

// localConfigFile is the repo-local config layer's fixed filename.
const localConfigFile = ".recut.yaml"

func userGlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "recut", "config.yaml")
}

func loadConfig(cmd *cobra.Command, f *engineFlags) (*rewriteconfig.Config, rewriteconfig.Provenance, error) {
	return rewriteconfig.Load(f.cliOverrides(cmd), f.config, localConfigFile, userGlobalConfigPath())
}

// loggerFromFlags builds the run's logger from the root command's
// persistent --log-format/--log-level flags.
func loggerFromFlags(cmd *cobra.Command, op string) *slog.Logger {
	format, _ := cmd.Flags().GetString("log-format")
	levelStr, _ := cmd.Flags().GetString("log-level")

	return rewritelog.New(format, op, parseLevel(levelStr))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
