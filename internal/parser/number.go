package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// NumberFormat is the decimal convention a document writes its numerals in.
type NumberFormat int

const (
	// FormatUnknown means no labeled numeral in the document settled the
	// convention; conversions fall back to a per-token guess.
	FormatUnknown NumberFormat = iota
	// FormatDotDecimal groups thousands with ',' and marks decimals with '.' (1,234.5).
	FormatDotDecimal
	// FormatCommaDecimal groups thousands with '.' and marks decimals with ',' (1.234,5).
	FormatCommaDecimal
)

func (f NumberFormat) String() string {
	switch f {
	case FormatDotDecimal:
		return "dot-decimal"
	case FormatCommaDecimal:
		return "comma-decimal"
	default:
		return "unknown"
	}
}

// numeralShape is a well-formed numeral once whitespace is stripped.
var numeralShape = regexp.MustCompile(`^-?\d+(?:[.,]\d+)*$`)

// DetectFormat samples the labeled numerals of text (XP, loot, supplies,
// balance, damage, healing) in document order and returns the convention of
// the first one that carries a separator.
func DetectFormat(text string) NumberFormat {
	return DefaultLabels().detectFormat(text)
}

func (ls *LabelSet) detectFormat(text string) NumberFormat {
	if ls.detect == nil {
		return FormatUnknown
	}
	// Resume on the last digit of each sample so it can serve as the
	// boundary of a label that follows on the same line.
	for pos := 0; pos < len(text); {
		loc := ls.detect.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		if f := classifyNumeral(text[pos+loc[2] : pos+loc[3]]); f != FormatUnknown {
			return f
		}
		pos += loc[3] - 1
	}
	return FormatUnknown
}

// classifyNumeral decides the convention of a single numeral. Numerals
// without any separator carry no information.
func classifyNumeral(tok string) NumberFormat {
	lastDot := strings.LastIndexByte(tok, '.')
	lastComma := strings.LastIndexByte(tok, ',')
	switch {
	case lastDot < 0 && lastComma < 0:
		return FormatUnknown
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return FormatDotDecimal
		}
		return FormatCommaDecimal
	case lastComma >= 0:
		return FormatDotDecimal
	default:
		// Only dots: 12.345 and 1.234.567 read as grouping, 12.5 as a decimal.
		if groupedBy(tok, '.') {
			return FormatCommaDecimal
		}
		return FormatDotDecimal
	}
}

// groupedBy reports whether every sep-delimited group after the first has
// exactly three digits.
func groupedBy(tok string, sep byte) bool {
	parts := strings.Split(tok, string(sep))
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// ToNumber converts token under format. Tokens that do not convert to a
// finite number resolve to 0.
func ToNumber(token string, format NumberFormat) float64 {
	v, _ := parseNumeral(token, format)
	return v
}

// parseNumeral is ToNumber with the failure reported.
func parseNumeral(token string, format NumberFormat) (float64, bool) {
	tok := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
	tok = strings.TrimPrefix(tok, "+")
	tok = strings.TrimRight(tok, ".,")
	if !numeralShape.MatchString(tok) {
		return 0, false
	}

	if format == FormatUnknown {
		format = guessFormat(tok)
	}
	decimal, grouping := ".", ","
	if format == FormatCommaDecimal {
		decimal, grouping = ",", "."
	}

	s := strings.ReplaceAll(tok, grouping, "")
	if strings.Count(s, decimal) > 1 {
		return 0, false
	}
	s = strings.Replace(s, decimal, ".", 1)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// guessFormat is the per-token heuristic used when the document gave no hint.
func guessFormat(tok string) NumberFormat {
	hasDot := strings.IndexByte(tok, '.') >= 0
	hasComma := strings.IndexByte(tok, ',') >= 0
	switch {
	case hasDot && hasComma:
		return classifyNumeral(tok)
	case hasComma:
		i := strings.LastIndexByte(tok, ',')
		if frac := len(tok) - i - 1; frac >= 1 && frac <= 2 && strings.Count(tok, ",") == 1 {
			return FormatCommaDecimal
		}
		return FormatDotDecimal
	case hasDot:
		return classifyNumeral(tok)
	default:
		return FormatDotDecimal
	}
}

// round matches the half-up rounding of the tracker's own derived figures.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
