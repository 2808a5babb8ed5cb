// Package mapx provides generic map and slice helpers: grouping, flattening,
// de-duplication, and sorted-key extraction.
package mapx

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of m in sorted order.
// Returns nil for a nil map.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	if m == nil {
		return nil
	}

	keys := make([]K, 0, len(m))

	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// GroupBy partitions s by keyFn. Element order inside each group follows s.
func GroupBy[T any, K comparable](s []T, keyFn func(T) K) map[K][]T {
	groups := make(map[K][]T)

	for _, v := range s {
		k := keyFn(v)
		groups[k] = append(groups[k], v)
	}

	return groups
}
