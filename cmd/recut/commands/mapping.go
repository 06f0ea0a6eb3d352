package commands

import (
	"github.com/recut-dev/recut/internal/chunker"
	"github.com/recut-dev/recut/internal/filters"
	"github.com/recut-dev/recut/internal/semantic"
)

func chunkingLevel(s string) chunker.Level {
	switch s {
	case "full_files":
		return chunker.FullFiles
	case "all_files":
		return chunker.AllFiles
	default:
		return chunker.None
	}
}

func secretAggression(s string) filters.Aggression {
	return aggressionFromString(s)
}

func relevanceAggression(s string) filters.Aggression {
	return aggressionFromString(s)
}

func aggressionFromString(s string) filters.Aggression {
	switch s {
	case "safe":
		return filters.Safe
	case "standard":
		return filters.Standard
	case "strict":
		return filters.Strict
	default:
		return filters.None
	}
}

func fallbackStrategy(s string) semantic.FallbackStrategy {
	switch s {
	case "all_together":
		return semantic.AllTogether
	case "by_file_name":
		return semantic.ByFileName
	case "by_file_extension":
		return semantic.ByFileExtension
	case "all_alone":
		return semantic.AllAlone
	default:
		return semantic.ByFilePath
	}
}
