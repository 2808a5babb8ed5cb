// Package discovery finds locale files on disk and derives their language tag.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/Sumatoshi-tech/localekeys/pkg/alg/mapx"
)

// ErrBadPattern is returned for malformed include or exclude globs.
var ErrBadPattern = errors.New("bad glob pattern")

// DefaultInclude matches every module extension the extractor understands.
var DefaultInclude = []string{"**/*.{ts,mts,cts,tsx,js,mjs,cjs,jsx}"} //nolint:gochecknoglobals // default policy

// DefaultExclude skips declaration files and tests.
var DefaultExclude = []string{"**/*.d.ts", "**/*.test.*", "**/*.spec.*"} //nolint:gochecknoglobals // default policy

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{ //nolint:gochecknoglobals // constant set
	"node_modules": true,
	"dist":         true,
}

// Config controls which files are considered locale files.
type Config struct {
	// Root is the directory walked. Empty means the current directory.
	Root string
	// Include globs, relative to Root with forward slashes. Empty uses DefaultInclude.
	Include []string
	// Exclude globs, applied after Include. Nil uses DefaultExclude.
	Exclude []string
	// StrictTags drops files whose language is not a valid BCP 47 tag.
	StrictTags bool
}

// Finder walks a directory tree for locale files.
type Finder struct {
	fs  afero.Fs
	cfg Config
}

// NewFinder creates a Finder over fsys. Patterns are checked up front.
func NewFinder(fsys afero.Fs, cfg Config) (*Finder, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}

	if len(cfg.Include) == 0 {
		cfg.Include = DefaultInclude
	}

	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude
	}

	for _, pattern := range slices.Concat(cfg.Include, cfg.Exclude) {
		if _, err := doublestar.Match(pattern, "a"); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadPattern, pattern, err)
		}
	}

	return &Finder{fs: fsys, cfg: cfg}, nil
}

// LocaleFiles returns the matching files grouped by directory. Groups are
// ordered by directory and files inside a group by name.
func (f *Finder) LocaleFiles(ctx context.Context) ([][]string, error) {
	var files []string

	err := afero.Walk(f.fs, f.cfg.Root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			if path != f.cfg.Root && skipDir(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !info.Mode().IsRegular() || !f.Matches(path) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", f.cfg.Root, err)
	}

	return group(files), nil
}

// Lang returns the language tag of path. It implements catalog.Discoverer.
func (f *Finder) Lang(path string) string {
	return Lang(path)
}

// Matches reports whether path would be reported by LocaleFiles, ignoring
// whether it exists.
func (f *Finder) Matches(path string) bool {
	if f.cfg.StrictTags && !ValidTag(Lang(path)) {
		return false
	}

	rel, err := filepath.Rel(f.cfg.Root, path)
	if err != nil {
		rel = path
	}

	rel = filepath.ToSlash(rel)

	dirs := strings.Split(rel, "/")
	for _, dir := range dirs[:len(dirs)-1] {
		if dir == ".." || skipDir(dir) {
			return false
		}
	}

	return matchAny(f.cfg.Include, rel) && !matchAny(f.cfg.Exclude, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

// skipDir reports whether a directory is hidden (e.g. .git) or a build or
// dependency folder.
func skipDir(name string) bool {
	return (len(name) > 1 && name[0] == '.') || skippedDirs[name]
}

func group(files []string) [][]string {
	byDir := mapx.GroupBy(files, filepath.Dir)
	groups := make([][]string, 0, len(byDir))

	for _, dir := range mapx.SortedKeys(byDir) {
		members := byDir[dir]
		slices.Sort(members)
		groups = append(groups, members)
	}

	return groups
}

// Lang derives a language tag from a locale file path. The file stem is used
// when it is a BCP 47 tag (locales/pt-BR.ts). For index files and stems that
// are not tags, a parent directory that is a tag wins (locales/pt-BR/index.ts,
// locales/de/messages.ts). Otherwise the stem is returned unchanged.
func Lang(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if stem != "index" && ValidTag(stem) {
		return stem
	}

	if parent := filepath.Base(filepath.Dir(path)); ValidTag(parent) {
		return parent
	}

	return stem
}

// ValidTag reports whether s parses as a well-formed, known BCP 47 tag.
// Underscores are accepted as separators.
func ValidTag(s string) bool {
	if s == "" {
		return false
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))

	return err == nil && tag != language.Und
}
