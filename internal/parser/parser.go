// Package parser turns pasted hunting-session logs into structured fields.
//
// A Parser holds an ordered list of strategies, one per known log layout.
// Parse hands the text to the first strategy whose marker it carries and
// reports ok=false when none does; ExtractAny is the separate best-effort
// path for unrecognised text. Content problems never fail a call: they are
// recorded as Diagnostics and degrade to absent or zero fields.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidInput is returned by ParseStrict for text that is neither UTF-8
// nor readable in the legacy Windows code page.
var ErrInvalidInput = errors.New("input is not valid UTF-8 or Windows-1252 text")

// DiagnosticKind classifies a non-fatal anomaly found while parsing.
type DiagnosticKind string

const (
	DiagMalformedNumber DiagnosticKind = "malformed_number"
	DiagMalformedDate   DiagnosticKind = "malformed_date"
	DiagMalformedEntry  DiagnosticKind = "malformed_entry"
	DiagLegacyEncoding  DiagnosticKind = "legacy_encoding"
)

// Diagnostic records one token that could not be used as written.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Field string         `json:"field"`
	Input string         `json:"input"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %q", d.Field, d.Kind, d.Input)
}

// Parser is safe for concurrent use; every call works on its own document.
type Parser struct {
	strategies []Strategy
	labels     *LabelSet
	loc        *time.Location
	log        zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger routes diagnostics to log at warn level.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithLocation sets the zone used for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLabels replaces the label tables used by format detection and the
// fallback extractor.
func WithLabels(ls *LabelSet) Option {
	return func(p *Parser) {
		if ls != nil {
			p.labels = ls
		}
	}
}

// WithStrategies replaces the strategy list. Order is preserved.
func WithStrategies(s ...Strategy) Option {
	return func(p *Parser) { p.strategies = s }
}

// New returns a Parser with the built-in strategies and labels.
func New(opts ...Option) *Parser {
	p := &Parser{
		strategies: builtinStrategies,
		labels:     DefaultLabels(),
		loc:        time.Local,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Strategies returns the registered strategies in dispatch order.
func (p *Parser) Strategies() []Strategy {
	out := make([]Strategy, len(p.strategies))
	copy(out, p.strategies)
	return out
}

// Claim returns the first strategy that recognises text.
func (p *Parser) Claim(text string) (Strategy, bool) {
	text = normalize(text)
	for _, s := range p.strategies {
		if s.CanParse(text) {
			return s, true
		}
	}
	return Strategy{}, false
}

// Parse extracts text with the first strategy that claims it. ok is false
// when no strategy does; callers then decide whether to call ExtractAny.
func (p *Parser) Parse(text string) (*Fields, bool) {
	s, ok := p.Claim(text)
	if !ok {
		return nil, false
	}
	doc := p.newDocument(text, s.Name)
	out := s.parse(doc)
	out.Diagnostics = doc.diags
	doc.done(out)
	return out, true
}

// ExtractAny recovers whatever it can from text field by field, then
// derives missing durations, rates and balance. Both lists are always
// non-nil.
func (p *Parser) ExtractAny(text string) *Fields {
	doc := p.newDocument(text, StrategyFallback)
	out := p.labels.extract(doc)
	out.Diagnostics = doc.diags
	doc.done(out)
	return out
}

// ParseOrExtract runs Parse and, when no strategy claims the text,
// ExtractAny. claimed reports which path produced the fields.
func (p *Parser) ParseOrExtract(text string) (fields *Fields, claimed bool) {
	if f, ok := p.Parse(text); ok {
		return f, true
	}
	return p.ExtractAny(text), false
}

// ParseStrict is ParseOrExtract for raw bytes read from a file or request.
// Text that is not UTF-8 is read as Windows-1252 and flagged with a
// legacy_encoding diagnostic; input that is not text either is rejected
// with ErrInvalidInput.
func (p *Parser) ParseStrict(text string) (*Fields, bool, error) {
	legacy := false
	if !utf8.ValidString(text) {
		decoded, ok := decodeLegacy(text)
		if !ok {
			return nil, false, ErrInvalidInput
		}
		text, legacy = decoded, true
	}
	f, claimed := p.ParseOrExtract(text)
	if legacy {
		d := Diagnostic{Kind: DiagLegacyEncoding, Field: "input", Input: legacyEncoding.String()}
		f.Diagnostics = append(f.Diagnostics, d)
		p.log.Warn().Str("encoding", d.Input).Msg("parser: input is not UTF-8, decoded as legacy code page")
	}
	return f, claimed, nil
}

// StrategyFallback is the Strategy name recorded on ExtractAny results.
const StrategyFallback = "fallback"

// document is the state of one parse call. The detected number format lives
// here and is passed explicitly to every conversion.
type document struct {
	text     string
	format   NumberFormat
	loc      *time.Location
	log      zerolog.Logger
	strategy string
	diags    []Diagnostic
}

func (p *Parser) newDocument(text, strategy string) *document {
	text = normalize(text)
	return &document{
		text:     text,
		format:   p.labels.detectFormat(text),
		loc:      p.loc,
		log:      p.log,
		strategy: strategy,
	}
}

func (d *document) warn(kind DiagnosticKind, field, input string) {
	d.diags = append(d.diags, Diagnostic{Kind: kind, Field: field, Input: input})
	d.log.Warn().
		Str("strategy", d.strategy).
		Str("field", field).
		Str("input", input).
		Msgf("parser: %s", kind)
}

func (d *document) done(out *Fields) {
	d.log.Debug().
		Str("strategy", d.strategy).
		Str("format", d.format.String()).
		Int("monsters", len(out.KilledMonsters)).
		Int("items", len(out.LootedItems)).
		Int("diagnostics", len(d.diags)).
		Msg("parser: parsed session log")
}

// number converts a captured token for f under the document's format.
func (d *document) number(f field, tok string) float64 {
	v, ok := parseNumeral(tok, d.format)
	if ok && v < 0 && !f.signed() {
		ok = false
	}
	if !ok {
		d.warn(DiagMalformedNumber, f.String(), tok)
		return 0
	}
	return v
}

// duration converts a captured duration to minutes. ok is false for a
// malformed token, which has already been reported.
func (d *document) duration(tok string) (int, bool) {
	mins, ok := parseDuration(tok)
	if !ok {
		d.warn(DiagMalformedNumber, fieldDuration.String(), tok)
	}
	return mins, ok
}

func (d *document) entries(section, body string) []Entry {
	return parseEntries(body, func(seg string) {
		d.warn(DiagMalformedEntry, section, seg)
	})
}

// normalize folds compatibility characters (no-break spaces, full-width
// digits) and line endings so patterns see one canonical form.
func normalize(text string) string {
	text = norm.NFKC.String(text)
	return strings.ReplaceAll(text, "\r\n", "\n")
}
