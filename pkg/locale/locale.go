// Package locale defines the catalogue values produced by key extraction.
package locale

// Location is the source span of a key token.
// Lines are 1-based, columns are 0-based UTF-16 code units.
type Location struct {
	StartLine   int `json:"startLine"   yaml:"startLine"`
	StartColumn int `json:"startColumn" yaml:"startColumn"`
	EndLine     int `json:"endLine"     yaml:"endLine"`
	EndColumn   int `json:"endColumn"   yaml:"endColumn"`
}

// Key is one discovered translation key.
type Key struct {
	Key      string   `json:"key"      yaml:"key"`
	Location Location `json:"location" yaml:"location"`
	// FilePath is the locale file the extraction was started from.
	FilePath string `json:"filePath" yaml:"filePath"`
	// SourcePath is the file Location points into. It differs from FilePath
	// only for keys pulled in through a spread of an imported object.
	SourcePath string `json:"sourcePath" yaml:"sourcePath"`
}

// Spread reports whether the key was introduced through a spread element.
func (k Key) Spread() bool {
	return k.SourcePath != "" && k.SourcePath != k.FilePath
}

// Locale groups the keys of one locale file.
type Locale struct {
	Lang     string `json:"lang"       yaml:"lang"`
	FilePath string `json:"filePath"   yaml:"filePath"`
	Keys     []Key  `json:"localeKeys" yaml:"localeKeys"`
}

// Stamp returns a copy of keys with FilePath set to filePath.
// SourcePath is filled from the previous FilePath when it was empty.
func Stamp(keys []Key, filePath string) []Key {
	if keys == nil {
		return nil
	}

	stamped := make([]Key, len(keys))

	for i, k := range keys {
		if k.SourcePath == "" {
			k.SourcePath = k.FilePath
		}

		k.FilePath = filePath
		stamped[i] = k
	}

	return stamped
}

// CountKeys returns the total number of keys across locales.
func CountKeys(locales []Locale) int {
	total := 0

	for _, l := range locales {
		total += len(l.Keys)
	}

	return total
}
