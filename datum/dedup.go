package datum

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DeduplicateByID is the default deduplication shared by every type without
// special semantics: within one homogeneous array, the first-encountered
// record wins for each id.
func DeduplicateByID[T Datum](data []T) []T {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(data))
	out := make([]T, 0, len(data))
	for _, d := range data {
		if seen.Add(d.Meta().ID) {
			out = append(out, d)
		}
	}
	return out
}
