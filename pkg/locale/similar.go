package locale

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// similarDivisor bounds the edit distance of a suggestion to a third of the
// queried key's length.
const similarDivisor = 3

// Similar returns up to limit known keys within a small edit distance of key,
// closest first. An exact match is never suggested.
func (idx *Index) Similar(key string, limit int) []string {
	if limit <= 0 || key == "" {
		return nil
	}

	maxDist := max(1, utf8.RuneCountInString(key)/similarDivisor)

	type candidate struct {
		key  string
		dist int
	}

	var found []candidate

	for known := range idx.byKey {
		if known == key {
			continue
		}

		if d := levenshtein.Distance(key, known, nil); d <= maxDist {
			found = append(found, candidate{key: known, dist: d})
		}
	}

	slices.SortFunc(found, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.dist, b.dist), cmp.Compare(a.key, b.key))
	})

	if len(found) > limit {
		found = found[:limit]
	}

	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.key)
	}

	return out
}
