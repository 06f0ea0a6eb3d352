// Package filters is C10: the secret scanner and the LLM relevance filter.
// Both take the current container list and return (kept, rejected);
// rejected containers never reach synthesis and remain as uncommitted
// working-tree diff.
package filters

import (
	"math"
	"regexp"

	"github.com/recut-dev/recut/internal/change"
)

// Aggression is the secret scanner's four-valued aggression level.
type Aggression int

const (
	// None disables the scanner entirely.
	None Aggression = iota
	// Safe matches only whole-line, high-confidence patterns.
	Safe
	// Standard adds broader patterns with low-entropy allowances.
	Standard
	// Strict adds entropy-based detection on top of Standard's patterns.
	Strict
)

// pattern is one catalog entry: a named, documented API-key shape.
type pattern struct {
	name  string
	re    *regexp.Regexp
	level Aggression // minimum aggression level at which this pattern is active
}

// catalog is the fixed, documented secret-shape catalog: AWS, GCP, private
// keys, JWTs, and generic bearer tokens.
var catalog = []pattern{
	{name: "aws_access_key_id", re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), level: Safe},
	{name: "aws_secret_access_key", re: regexp.MustCompile(`(?i)aws_secret_access_key\s*=\s*[A-Za-z0-9/+=]{40}`), level: Safe},
	{name: "gcp_api_key", re: regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), level: Safe},
	{name: "private_key_block", re: regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH |DSA |)PRIVATE KEY-----`), level: Safe},
	{name: "jwt", re: regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), level: Standard},
	{name: "generic_bearer_token", re: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.=]{20,}`), level: Standard},
	{name: "generic_api_key_assignment", re: regexp.MustCompile(`(?i)(api[_-]?key|secret|token)\s*[:=]\s*['"][A-Za-z0-9\-_./+=]{16,}['"]`), level: Standard},
}

// minEntropy is the Shannon-entropy (bits/char) threshold above which a
// quoted string literal is treated as secret-shaped under Strict.
const minEntropy = 4.0

// ScanSecrets runs the catalog (and, under Strict, an entropy check) over
// every container's added lines, rejecting any container with a match.
func ScanSecrets(containers []change.Container, level Aggression) (kept, rejected []change.Container) {
	if level == None {
		return containers, nil
	}

	for _, c := range containers {
		if containsSecret(c, level) {
			rejected = append(rejected, c)
		} else {
			kept = append(kept, c)
		}
	}

	return kept, rejected
}

func containsSecret(c change.Container, level Aggression) bool {
	for _, leaf := range c.Leaves() {
		if leaf.Opaque {
			continue
		}

		for _, l := range leaf.Lines {
			if l.Kind != change.Addition {
				continue
			}

			line := string(l.Content)

			for _, p := range catalog {
				if p.level > level {
					continue
				}

				if p.re.MatchString(line) {
					return true
				}
			}

			if level == Strict && highEntropyLiteral(line) {
				return true
			}
		}
	}

	return false
}

var quotedLiteral = regexp.MustCompile(`['"]([A-Za-z0-9+/=\-_.]{20,})['"]`)

func highEntropyLiteral(line string) bool {
	for _, m := range quotedLiteral.FindAllStringSubmatch(line, -1) {
		if shannonEntropy(m[1]) >= minEntropy {
			return true
		}
	}

	return false
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := map[rune]int{}
	for _, r := range s {
		counts[r]++
	}

	total := float64(len(s))
	entropy := 0.0

	for _, n := range counts {
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}

	return entropy
}
