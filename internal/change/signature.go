package change

// FQN is a fully-qualified enclosing scope name paired with its scope kind
// (function, class, method, namespace, block, module).
type FQN struct {
	Name string
	Kind string
}

// Signature is the semantic fingerprint of one container: the symbols it
// defines and references on each side of the change, and the scopes that
// enclose it. Two signatures overlap if any symbol name appears in both, or
// any FQN in one is a prefix of, equal to, or a suffix of an FQN in the
// other (see Overlaps).
type Signature struct {
	DefinedNew   []string
	DefinedOld   []string
	ReferencedNew []string
	ReferencedOld []string
	NewFQNs      []FQN
	OldFQNs      []FQN
	Languages    []string
}

// Valid reports whether at least one symbol set is non-empty.
func (s Signature) Valid() bool {
	return len(s.DefinedNew) > 0 || len(s.DefinedOld) > 0 ||
		len(s.ReferencedNew) > 0 || len(s.ReferencedOld) > 0
}

// Merge unions two signatures' fields, used when a composite's signature is
// computed as the union of its leaves'.
func (s Signature) Merge(other Signature) Signature {
	return Signature{
		DefinedNew:    unionStrings(s.DefinedNew, other.DefinedNew),
		DefinedOld:    unionStrings(s.DefinedOld, other.DefinedOld),
		ReferencedNew: unionStrings(s.ReferencedNew, other.ReferencedNew),
		ReferencedOld: unionStrings(s.ReferencedOld, other.ReferencedOld),
		NewFQNs:       unionFQNs(s.NewFQNs, other.NewFQNs),
		OldFQNs:       unionFQNs(s.OldFQNs, other.OldFQNs),
		Languages:     unionStrings(s.Languages, other.Languages),
	}
}

// Overlaps reports whether two signatures share a symbol name, or whether
// any FQN of one is a prefix, suffix, or exact match of any FQN of the
// other.
func (s Signature) Overlaps(other Signature) bool {
	allSymbols := func(sig Signature) []string {
		var out []string
		out = append(out, sig.DefinedNew...)
		out = append(out, sig.DefinedOld...)
		out = append(out, sig.ReferencedNew...)
		out = append(out, sig.ReferencedOld...)

		return out
	}

	set := map[string]bool{}
	for _, sym := range allSymbols(s) {
		set[sym] = true
	}

	for _, sym := range allSymbols(other) {
		if set[sym] {
			return true
		}
	}

	allFQNs := func(sig Signature) []FQN {
		var out []FQN
		out = append(out, sig.NewFQNs...)
		out = append(out, sig.OldFQNs...)

		return out
	}

	for _, a := range allFQNs(s) {
		for _, b := range allFQNs(other) {
			if fqnRelated(a.Name, b.Name) {
				return true
			}
		}
	}

	return false
}

func fqnRelated(a, b string) bool {
	if a == b {
		return true
	}

	return hasPrefixDot(a, b) || hasPrefixDot(b, a)
}

func hasPrefixDot(longer, shorter string) bool {
	if len(longer) <= len(shorter) || shorter == "" {
		return false
	}

	return longer[:len(shorter)] == shorter && longer[len(shorter)] == '.'
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}

	var out []string

	for _, s := range a {
		if !seen[s] {
			seen[s] = true

			out = append(out, s)
		}
	}

	for _, s := range b {
		if !seen[s] {
			seen[s] = true

			out = append(out, s)
		}
	}

	return out
}

func unionFQNs(a, b []FQN) []FQN {
	seen := map[FQN]bool{}

	var out []FQN

	for _, f := range append(append([]FQN{}, a...), b...) {
		if !seen[f] {
			seen[f] = true

			out = append(out, f)
		}
	}

	return out
}

// Scope is one AST scope node: function, class, method, namespace, block, or
// module. Scopes live in a flat arena (see astctx.Context.Scopes); Parent is
// an index into that arena, -1 at the root, per the arena/index design note
// for cyclic-looking parent-pointer trees.
type Scope struct {
	ID        int
	Kind      string
	Name      string
	StartLine int
	EndLine   int
	Parent    int
	Children  []int
}
