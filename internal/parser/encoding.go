package parser

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// legacyEncoding is tried for text that is not UTF-8. Older Windows game
// clients export their logs in it.
var legacyEncoding = charmap.Windows1252

// decodeLegacy transcodes text from the legacy code page. ok is false when
// the result still does not read as a text log (control bytes, undefined
// code points), which is the case for binary files.
func decodeLegacy(text string) (string, bool) {
	out, err := legacyEncoding.NewDecoder().String(text)
	if err != nil {
		return "", false
	}
	for _, r := range out {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
		case r == utf8.RuneError, unicode.IsControl(r):
			return "", false
		}
	}
	return out, true
}
