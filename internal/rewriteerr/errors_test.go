package rewriteerr_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recut-dev/recut/internal/rewriteerr"
)

func TestFatal_FatalKinds(t *testing.T) {
	t.Parallel()

	fatalKinds := []error{
		rewriteerr.ErrDiffParse,
		rewriteerr.ErrSynthesisMismatch,
		rewriteerr.ErrPatchApply,
		rewriteerr.ErrFixReparent,
		rewriteerr.ErrMergeInRange,
		rewriteerr.ErrDetachedHead,
		rewriteerr.ErrRootCommitUnsupported,
		rewriteerr.ErrValidationInput,
		rewriteerr.ErrNotARepo,
	}

	for _, kind := range fatalKinds {
		wrapped := fmt.Errorf("context: %w", kind)
		assert.True(t, rewriteerr.Fatal(wrapped), "expected %v to be fatal", kind)
	}
}

func TestFatal_RecoverableKinds(t *testing.T) {
	t.Parallel()

	recoverable := []error{
		rewriteerr.ErrAdapterFailure,
		rewriteerr.ErrInterrupted,
	}

	for _, kind := range recoverable {
		assert.False(t, rewriteerr.Fatal(kind), "expected %v to be recoverable", kind)
	}
}

func TestFatal_UnrelatedErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	assert.False(t, rewriteerr.Fatal(fmt.Errorf("some other error")))
}
