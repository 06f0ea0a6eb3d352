// Package rewriteerr defines the sentinel error kinds shared across the
// rewrite engine, per the propagation policy: a handful of kinds are fatal
// and halt before any Git write, the rest are recoverable at their call site.
package rewriteerr

import "errors"

var (
	// ErrNotARepo is returned when the working directory is not inside a Git repository.
	ErrNotARepo = errors.New("not a git repository")
	// ErrDetachedHead is returned when the current branch cannot be resolved to a ref.
	ErrDetachedHead = errors.New("HEAD is detached")
	// ErrRootCommitUnsupported is returned when B or T resolves to the repository root commit.
	ErrRootCommitUnsupported = errors.New("root commit rewriting is unsupported")
	// ErrMergeInRange is returned when a merge commit lies within the commit range being rewritten.
	ErrMergeInRange = errors.New("merge commit in range")
	// ErrDiffParse is returned when git diff output does not match the expected grammar.
	ErrDiffParse = errors.New("diff parse failure")
	// ErrPatchApply is returned when git apply --cached rejects a generated patch.
	ErrPatchApply = errors.New("patch application failed")
	// ErrSynthesisMismatch is returned when the synthesized tree does not equal the target tree.
	ErrSynthesisMismatch = errors.New("synthesized tree does not match target")
	// ErrFixReparent is returned when reparenting downstream commits fails.
	ErrFixReparent = errors.New("reparent failed")
	// ErrValidationInput is returned for malformed hashes, paths, or out-of-range sizes.
	ErrValidationInput = errors.New("invalid input")
	// ErrAdapterFailure is returned when an LLM or embedding adapter call fails or returns unparseable output.
	ErrAdapterFailure = errors.New("adapter failure")
	// ErrInterrupted is returned when a run is aborted by SIGINT before the final ref update.
	ErrInterrupted = errors.New("interrupted")
)

// Fatal reports whether an error kind, per the propagation policy, is fatal:
// printed as a one-line cause with no ref update, as opposed to a recoverable
// AdapterFailure that the caller degrades instead of aborting on.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrDiffParse),
		errors.Is(err, ErrSynthesisMismatch),
		errors.Is(err, ErrPatchApply),
		errors.Is(err, ErrFixReparent),
		errors.Is(err, ErrMergeInRange),
		errors.Is(err, ErrDetachedHead),
		errors.Is(err, ErrRootCommitUnsupported),
		errors.Is(err, ErrValidationInput),
		errors.Is(err, ErrNotARepo):
		return true
	default:
		return false
	}
}
