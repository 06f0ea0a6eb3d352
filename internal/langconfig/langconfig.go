// Package langconfig loads the per-language tree-sitter query bundle used by
// C6: a JSON map keyed by language name, each value carrying four pattern
// lists (scope, token_definition, token_reference, comment). The engine
// ships a default bundle (embedded); a --custom-config path overrides
// entries by language, per spec §6.
package langconfig

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed default.json
var defaultFS embed.FS

// LanguageQueries holds the four query-kind pattern lists for one language.
type LanguageQueries struct {
	Scope           []string `json:"scope"`
	TokenDefinition []string `json:"token_definition"`
	TokenReference  []string `json:"token_reference"`
	Comment         []string `json:"comment"`
}

// Bundle maps language name to its query configuration.
type Bundle map[string]LanguageQueries

// Load reads the embedded default bundle, then merges customPath (if
// non-empty) on top, overriding entries by language name.
func Load(customPath string) (Bundle, error) {
	raw, err := defaultFS.ReadFile("default.json")
	if err != nil {
		return nil, fmt.Errorf("langconfig: read embedded default: %w", err)
	}

	bundle := Bundle{}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("langconfig: parse embedded default: %w", err)
	}

	if customPath == "" {
		return bundle, nil
	}

	customRaw, err := os.ReadFile(customPath)
	if err != nil {
		return nil, fmt.Errorf("langconfig: read custom config %q: %w", customPath, err)
	}

	custom := Bundle{}
	if err := json.Unmarshal(customRaw, &custom); err != nil {
		return nil, fmt.Errorf("langconfig: parse custom config %q: %w", customPath, err)
	}

	for lang, queries := range custom {
		bundle[lang] = queries
	}

	return bundle, nil
}

// For returns the query configuration for language, or the zero value
// (every query kind empty) if the language is unconfigured — per §4.3, an
// unconfigured language is "effectively unanalyzable", not an error.
func (b Bundle) For(language string) LanguageQueries {
	return b[language]
}
