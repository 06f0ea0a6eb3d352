// Package semantic is C8 (labeller) and C9 (grouper): attaching a Signature
// to every container and folding containers whose signatures overlap into
// one semantic cluster.
package semantic

import (
	"github.com/recut-dev/recut/internal/astctx"
	"github.com/recut-dev/recut/internal/change"
)

// Label computes one Signature for a container: the union of its leaves'
// signatures, each leaf's computed from the old-file context for its
// removal lines and the new-file context for its addition lines.
func Label(c change.Container, ctxMgr *astctx.Manager) change.Signature {
	var sig change.Signature

	for _, leaf := range c.Leaves() {
		sig = sig.Merge(labelLeaf(leaf, ctxMgr))
	}

	return sig
}

func labelLeaf(leaf change.DiffChunk, ctxMgr *astctx.Manager) change.Signature {
	if leaf.Opaque || ctxMgr == nil {
		return change.Signature{}
	}

	var sig change.Signature

	oldCtx, hasOld := ctxMgr.Get(leaf.OldPath, leaf.BaseCommit)
	newCtx, hasNew := ctxMgr.Get(leaf.NewPath, leaf.NewCommit)

	for _, l := range leaf.Lines {
		switch l.Kind {
		case change.Removal:
			if hasOld && oldCtx.Available {
				applyLine(&sig, oldCtx, l.OldLine-1, false)
			}
		case change.Addition:
			if hasNew && newCtx.Available {
				applyLine(&sig, newCtx, l.NewLine-1, true)
			}
		}
	}

	return sig
}

func applyLine(sig *change.Signature, actx *astctx.Context, line int, isNew bool) {
	tokens := actx.SymbolMap[line]
	for _, tok := range tokens {
		if isNew {
			sig.ReferencedNew = appendUnique(sig.ReferencedNew, tok)
		} else {
			sig.ReferencedOld = appendUnique(sig.ReferencedOld, tok)
		}
	}

	for _, scopeID := range actx.ScopeMap[line] {
		if scopeID < 0 || scopeID >= len(actx.Scopes) {
			continue
		}

		scope := actx.Scopes[scopeID]

		fqn := change.FQN{Name: scope.Name, Kind: scope.Kind}
		if fqn.Name == "" {
			continue
		}

		if isNew {
			sig.NewFQNs = appendUniqueFQN(sig.NewFQNs, fqn)
		} else {
			sig.OldFQNs = appendUniqueFQN(sig.OldFQNs, fqn)
		}
	}

	if actx.Language != "" {
		sig.Languages = appendUnique(sig.Languages, actx.Language)
	}

	classifyDefinitionVsReference(sig, actx, line, isNew)
}

// classifyDefinitionVsReference moves a line's definition-capture tokens
// (qualified token names beginning with a "definition" query capture) from
// the referenced set into the defined set. The symbol map does not itself
// distinguish capture kinds once flattened, so definitions are recognized by
// their capture-name prefix (see uast.QualifiedToken).
func classifyDefinitionVsReference(sig *change.Signature, actx *astctx.Context, line int, isNew bool) {
	for _, tok := range actx.SymbolMap[line] {
		if !hasDefinitionPrefix(tok) {
			continue
		}

		if isNew {
			sig.DefinedNew = appendUnique(sig.DefinedNew, tok)
			sig.ReferencedNew = removeValue(sig.ReferencedNew, tok)
		} else {
			sig.DefinedOld = appendUnique(sig.DefinedOld, tok)
			sig.ReferencedOld = removeValue(sig.ReferencedOld, tok)
		}
	}
}

func hasDefinitionPrefix(token string) bool {
	const prefix = "definition:"

	return len(token) >= len(prefix) && token[:len(prefix)] == prefix
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}

	return append(list, v)
}

func appendUniqueFQN(list []change.FQN, v change.FQN) []change.FQN {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}

	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := list[:0]

	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}

	return out
}
