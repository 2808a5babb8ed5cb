package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and UTF-16 character offset, as sent by clients.
type Position struct {
	Line      int
	Character int
}

// offsetOf converts pos to a byte offset in text, clamped to the line end and
// to the end of text.
func offsetOf(text string, pos Position) int {
	offset := 0

	for range pos.Line {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}

		offset += nl + 1
	}

	units := 0

	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}

		units += utf16.RuneLen(r)
		offset += size
	}

	return offset
}

// lineAt returns the given zero-based line of text without its terminator.
func lineAt(text string, line int) (string, bool) {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return "", false
	}

	return strings.TrimSuffix(lines[line], "\r"), true
}

// keyAt returns the translation key candidate under the cursor: the contents
// of the quoted string around it, or else the key-like word around it.
func keyAt(text string, pos Position) string {
	lineText, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}

	cursor := offsetOf(lineText, Position{Character: pos.Character})

	if s, found := quotedAt(lineText, cursor); found {
		return s
	}

	return wordAt(lineText, cursor)
}

// quotedAt finds the string literal on lineText whose quotes enclose cursor.
func quotedAt(lineText string, cursor int) (string, bool) {
	for i := 0; i < len(lineText); i++ {
		quote := lineText[i]
		if quote != '"' && quote != '\'' && quote != '`' {
			continue
		}

		end := closingQuote(lineText, i+1, quote)
		if end < 0 {
			return "", false
		}

		if cursor > i && cursor <= end {
			return lineText[i+1 : end], true
		}

		i = end
	}

	return "", false
}

func closingQuote(lineText string, from int, quote byte) int {
	for j := from; j < len(lineText); j++ {
		switch lineText[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}

	return -1
}

func wordAt(lineText string, cursor int) string {
	cursor = min(cursor, len(lineText))

	start := cursor
	for start > 0 && isKeyChar(lineText[start-1]) {
		start--
	}

	end := cursor
	for end < len(lineText) && isKeyChar(lineText[end]) {
		end++
	}

	return lineText[start:end]
}

func isKeyChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '.' || ch == '-' || ch == '$'
}

// pathFromURI converts a file:// URI to a cleaned local path.
func pathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}

	return filepath.Clean(filepath.FromSlash(u.Path))
}

// uriFromPath converts an absolute local path to a file:// URI.
func uriFromPath(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
