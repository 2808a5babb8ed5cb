package locale

import (
	"github.com/Sumatoshi-tech/localekeys/pkg/alg/mapx"
)

// Definition is a key occurrence together with the language it belongs to.
type Definition struct {
	Lang string `json:"lang"`
	Key
}

// Index answers key lookups over a catalogue. It is read-only after construction
// and safe for concurrent use.
type Index struct {
	byKey     map[string][]Definition
	languages []string
	files     map[string]struct{}
}

// NewIndex builds an Index over locales, preserving catalogue order per key.
func NewIndex(locales []Locale) *Index {
	idx := &Index{
		byKey: make(map[string][]Definition),
		files: make(map[string]struct{}),
	}

	langs := make([]string, 0, len(locales))

	for _, l := range locales {
		langs = append(langs, l.Lang)
		idx.files[l.FilePath] = struct{}{}

		for _, k := range l.Keys {
			idx.byKey[k.Key] = append(idx.byKey[k.Key], Definition{Lang: l.Lang, Key: k})

			if k.SourcePath != "" {
				idx.files[k.SourcePath] = struct{}{}
			}
		}
	}

	idx.languages = mapx.Unique(langs)

	return idx
}

// Lookup returns every definition of key, nil when the key is unknown.
func (idx *Index) Lookup(key string) []Definition {
	return mapx.CloneSlice(idx.byKey[key])
}

// Has reports whether key is defined in any language.
func (idx *Index) Has(key string) bool {
	_, ok := idx.byKey[key]

	return ok
}

// Keys returns all distinct keys, sorted.
func (idx *Index) Keys() []string {
	return mapx.SortedKeys(idx.byKey)
}

// Languages returns the distinct languages in catalogue order.
func (idx *Index) Languages() []string {
	return mapx.CloneSlice(idx.languages)
}

// Covers reports whether path is a locale file or a spread target seen in the catalogue.
func (idx *Index) Covers(path string) bool {
	_, ok := idx.files[path]

	return ok
}
