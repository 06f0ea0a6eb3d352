package grouper

import (
	"sort"

	"github.com/recut-dev/recut/internal/change"
)

// EnforceMinimumSize repeatedly merges the smallest group with the next
// smallest until every group meets minSize or a single group remains.
// Group "size" is change.Container.Size(): total additions+removals, or 1
// per opaque chunk.
func EnforceMinimumSize(groups []change.CommitGroup, minSize int) []change.CommitGroup {
	if minSize <= 1 || len(groups) <= 1 {
		return groups
	}

	current := append([]change.CommitGroup{}, groups...)

	for {
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].Container.Size() < current[j].Container.Size()
		})

		if len(current) <= 1 || current[0].Container.Size() >= minSize {
			return current
		}

		merged := change.CommitGroup{
			Container: change.Composite(current[0].Container, current[1].Container),
			Message:   mergeMessages(current[0].Message, current[1].Message),
		}

		current = append([]change.CommitGroup{merged}, current[2:]...)
	}
}

func mergeMessages(a, b string) string {
	if a == "" {
		return b
	}

	if b == "" {
		return a
	}

	return a + "; " + b
}
