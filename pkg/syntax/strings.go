package syntax

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	hexBase     = 16
	octalBase   = 8
	hexByteLen  = 2
	hexUnitLen  = 4
	runeBitSize = 32
)

var simpleEscapes = map[byte]string{
	'n': "\n",
	'r': "\r",
	't': "\t",
	'b': "\b",
	'f': "\f",
	'v': "\v",
	'0': "\x00",
}

// decodeEscape decodes one escape_sequence token (backslash included). A
// sequence of several \uXXXX units is accepted so surrogate pairs, which
// tree-sitter may hand over as one token, decode to a single rune.
func decodeEscape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}

	var out strings.Builder

	var units []uint16

	flush := func() {
		if len(units) > 0 {
			out.WriteString(string(utf16.Decode(units)))
			units = units[:0]
		}
	}

	for len(seq) >= 2 && seq[0] == '\\' {
		unit, rest, ok := utf16Unit(seq)
		if ok {
			units = append(units, unit)
			seq = rest

			continue
		}

		flush()

		decoded, rest := decodeOne(seq)
		out.WriteString(decoded)
		seq = rest
	}

	flush()
	out.WriteString(seq)

	return out.String()
}

// utf16Unit reads a \uXXXX escape.
func utf16Unit(seq string) (uint16, string, bool) {
	if len(seq) < 2+hexUnitLen || seq[1] != 'u' || seq[2] == '{' {
		return 0, seq, false
	}

	v, err := strconv.ParseUint(seq[2:2+hexUnitLen], hexBase, 16)
	if err != nil {
		return 0, seq, false
	}

	return uint16(v), seq[2+hexUnitLen:], true
}

// decodeOne decodes the escape at the start of seq and returns the remainder.
func decodeOne(seq string) (string, string) {
	c := seq[1]

	if s, ok := simpleEscapes[c]; ok && (c != '0' || len(seq) == 2 || !isOctal(seq[2])) {
		return s, seq[2:]
	}

	switch c {
	case '\n':
		return "", seq[2:]
	case '\r':
		if len(seq) > 2 && seq[2] == '\n' {
			return "", seq[3:]
		}

		return "", seq[2:]
	case 'x':
		if len(seq) >= 2+hexByteLen {
			if v, err := strconv.ParseUint(seq[2:2+hexByteLen], hexBase, 8); err == nil {
				return string(rune(v)), seq[2+hexByteLen:]
			}
		}
	case 'u':
		if len(seq) > 2 && seq[2] == '{' {
			if end := strings.IndexByte(seq, '}'); end > 3 {
				if v, err := strconv.ParseUint(seq[3:end], hexBase, runeBitSize); err == nil && utf8.ValidRune(rune(v)) {
					return string(rune(v)), seq[end+1:]
				}
			}
		}
	}

	if isOctal(c) {
		end := 2
		for end < len(seq) && end < 4 && isOctal(seq[end]) {
			end++
		}

		if v, err := strconv.ParseUint(seq[1:end], octalBase, 8); err == nil {
			return string(rune(v)), seq[end:]
		}
	}

	// Any other escaped character stands for itself.
	r, size := utf8.DecodeRuneInString(seq[1:])

	return string(r), seq[1+size:]
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
