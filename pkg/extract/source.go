package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
)

// ErrNotRegularFile is returned when a locale path names a directory or device.
var ErrNotRegularFile = errors.New("not a regular file")

// statSource checks that path is a regular file within the size limit.
func (e *Extractor) statSource(ctx context.Context, path string) (fs.FileInfo, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	if info.Size() > e.maxFileSize {
		e.logger.WarnContext(ctx, "locale file exceeds size limit",
			slog.String("path", path),
			slog.String("size", humanize.IBytes(uint64(info.Size()))),
			slog.String("limit", humanize.IBytes(uint64(e.maxFileSize))),
		)

		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrFileTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(e.maxFileSize)))
	}

	return info, nil
}

// stampOf returns the cache key of the current version of path, or "" when
// path is not a regular file.
func (e *Extractor) stampOf(path string) string {
	info, err := e.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}

	return cacheKey(path, info)
}

// cacheKey identifies one version of a file's content.
func cacheKey(path string, info fs.FileInfo) string {
	return path + "\x00" + strconv.FormatInt(info.ModTime().UnixNano(), 10) +
		"\x00" + strconv.FormatInt(info.Size(), 10)
}

func cleanPath(path string) string {
	return filepath.Clean(path)
}
