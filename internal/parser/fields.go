package parser

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Fields is the result of one parse call. Every scalar is optional; a nil
// pointer means the log did not state it. For the two lists, nil means the
// section was not found and an empty slice means it was found but empty.
type Fields struct {
	Strategy string `json:"strategy"`

	StartTime       *time.Time `json:"start_datetime,omitempty"`
	EndTime         *time.Time `json:"end_datetime,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`

	RawXPGain      *float64 `json:"raw_xp_gain,omitempty"`
	TotalXPGain    *float64 `json:"total_xp_gain,omitempty"`
	RawXPPerHour   *float64 `json:"raw_xp_per_hour,omitempty"`
	TotalXPPerHour *float64 `json:"total_xp_per_hour,omitempty"`

	LootValue     *float64 `json:"loot_value,omitempty"`
	SuppliesValue *float64 `json:"supplies_value,omitempty"`
	Balance       *float64 `json:"balance,omitempty"`

	DamageDealt    *float64 `json:"damage_dealt,omitempty"`
	DamagePerHour  *float64 `json:"damage_per_hour,omitempty"`
	HealingDone    *float64 `json:"healing_done,omitempty"`
	HealingPerHour *float64 `json:"healing_per_hour,omitempty"`

	KilledMonsters []Entry `json:"killed_monsters"`
	LootedItems    []Entry `json:"looted_items"`

	Format      NumberFormat `json:"-"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// MarshalJSON leaves out a list whose section was not found, so absent
// and empty ("[]") stay distinct on the wire.
func (fs Fields) MarshalJSON() ([]byte, error) {
	type plain Fields
	out := struct {
		plain
		KilledMonsters *[]Entry `json:"killed_monsters,omitempty"`
		LootedItems    *[]Entry `json:"looted_items,omitempty"`
	}{plain: plain(fs)}
	if fs.KilledMonsters != nil {
		out.KilledMonsters = &fs.KilledMonsters
	}
	if fs.LootedItems != nil {
		out.LootedItems = &fs.LootedItems
	}
	return json.Marshal(out)
}

// field names one scalar of Fields. The string form is the JSON key and the
// key used in label files.
type field int

const (
	fieldStart field = iota
	fieldEnd
	fieldDuration
	fieldRawXPGain
	fieldTotalXPGain
	fieldRawXPPerHour
	fieldTotalXPPerHour
	fieldLoot
	fieldSupplies
	fieldBalance
	fieldDamage
	fieldDamagePerHour
	fieldHealing
	fieldHealingPerHour
	numFields
)

var fieldNames = [numFields]string{
	"start_datetime",
	"end_datetime",
	"duration_minutes",
	"raw_xp_gain",
	"total_xp_gain",
	"raw_xp_per_hour",
	"total_xp_per_hour",
	"loot_value",
	"supplies_value",
	"balance",
	"damage_dealt",
	"damage_per_hour",
	"healing_done",
	"healing_per_hour",
}

func (f field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

func fieldByName(name string) (field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return field(i), true
		}
	}
	return 0, false
}

func (f field) numeric() bool {
	return f != fieldStart && f != fieldEnd && f != fieldDuration && f < numFields
}

// signed reports whether the field may legitimately be negative.
func (f field) signed() bool { return f == fieldBalance }

// numberPtr returns the storage slot of a numeric field, nil for the
// date and duration fields.
func (fs *Fields) numberPtr(f field) **float64 {
	switch f {
	case fieldRawXPGain:
		return &fs.RawXPGain
	case fieldTotalXPGain:
		return &fs.TotalXPGain
	case fieldRawXPPerHour:
		return &fs.RawXPPerHour
	case fieldTotalXPPerHour:
		return &fs.TotalXPPerHour
	case fieldLoot:
		return &fs.LootValue
	case fieldSupplies:
		return &fs.SuppliesValue
	case fieldBalance:
		return &fs.Balance
	case fieldDamage:
		return &fs.DamageDealt
	case fieldDamagePerHour:
		return &fs.DamagePerHour
	case fieldHealing:
		return &fs.HealingDone
	case fieldHealingPerHour:
		return &fs.HealingPerHour
	}
	return nil
}

func (fs *Fields) has(f field) bool {
	switch f {
	case fieldStart:
		return fs.StartTime != nil
	case fieldEnd:
		return fs.EndTime != nil
	case fieldDuration:
		return fs.DurationMinutes != nil
	}
	return *fs.numberPtr(f) != nil
}

func (fs *Fields) setNumber(f field, v float64) {
	if p := fs.numberPtr(f); p != nil {
		*p = &v
	}
}

// groupKind selects how a group's captures are converted.
type groupKind int

const (
	numericGroup groupKind = iota
	durationGroup
	dateRangeGroup
)

// groupPattern is one combined regex for a field group; capture i fills fields[i].
type groupPattern struct {
	re     *regexp.Regexp
	fields []field
}

// fieldGroup is a table row: the first pattern that matches fills the
// whole group.
type fieldGroup struct {
	name     string
	kind     groupKind
	patterns []groupPattern
}

// labelBoundary keeps "XP Gain" from matching inside "Raw XP Gain": a label
// starts a line or follows the previous value ("1,000", "01:38h").
const labelBoundary = `(?:^|[^\p{L}\s]\p{L}*)[ \t]*`

// valueExpr captures the token after a label; it may be empty or malformed,
// in which case conversion reports it. Numerals grouped by spaces
// ("1 234 567", no-break spaces already folded) are taken whole.
const valueExpr = `([-+]?\d{1,3}(?:[ \t]\d{3})+(?:[.,]\d+)?\b|\S*)`

// durationExpr captures "2h 15m" style durations whole and anything else
// as a single token.
const durationExpr = `(\d+[ \t]*h(?:[ \t]*\d+[ \t]*m(?:in)?\b)?|\d+[ \t]*m(?:in)?\b|\S*)`

// labelExpr renders a literal label followed by its colon.
func labelExpr(label string) string {
	parts := strings.Fields(label)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `[ \t]+`) + `[ \t]*:[ \t]*`
}

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)` + expr)
}

// seq builds a combined pattern for labels that follow each other
// separated only by whitespace.
func seq(labels ...string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(labelBoundary)
	for i, l := range labels {
		if i > 0 {
			b.WriteString(`\s+`)
		}
		b.WriteString(labelExpr(l))
		b.WriteString(valueExpr)
	}
	return compile(b.String())
}

// pair lists a two-field group in both orders.
func pair(name, labelA, labelB string, a, b field) fieldGroup {
	return fieldGroup{
		name: name,
		kind: numericGroup,
		patterns: []groupPattern{
			{re: seq(labelA, labelB), fields: []field{a, b}},
			{re: seq(labelB, labelA), fields: []field{b, a}},
		},
	}
}

func single(name, label string, f field) fieldGroup {
	return fieldGroup{
		name:     name,
		kind:     numericGroup,
		patterns: []groupPattern{{re: seq(label), fields: []field{f}}},
	}
}

func duration(labels ...string) fieldGroup {
	g := fieldGroup{name: "duration", kind: durationGroup}
	for _, l := range labels {
		re := compile(labelBoundary + labelExpr(l) + durationExpr)
		g.patterns = append(g.patterns, groupPattern{re: re, fields: []field{fieldDuration}})
	}
	return g
}

func dateRange(exprs ...string) fieldGroup {
	g := fieldGroup{name: "date range", kind: dateRangeGroup}
	for _, e := range exprs {
		g.patterns = append(g.patterns, groupPattern{re: compile(e), fields: []field{fieldStart, fieldEnd}})
	}
	return g
}

// filled reports whether an earlier group already set every field this one
// would set.
func (g fieldGroup) filled(out *Fields) bool {
	if len(g.patterns) == 0 {
		return false
	}
	for _, f := range g.patterns[0].fields {
		if !out.has(f) {
			return false
		}
	}
	return true
}

// extract applies the group to doc and fills out. A group that matches
// nowhere leaves every one of its fields absent.
func (g fieldGroup) extract(doc *document, out *Fields) {
	for _, p := range g.patterns {
		m := p.re.FindStringSubmatch(doc.text)
		if m == nil {
			continue
		}
		switch g.kind {
		case dateRangeGroup:
			start, okStart := parseDateTime(m[1], doc.loc)
			end, okEnd := parseDateTime(m[2], doc.loc)
			if !okStart || !okEnd {
				doc.warn(DiagMalformedDate, g.name, strings.TrimSpace(m[1])+" / "+strings.TrimSpace(m[2]))
				return
			}
			out.StartTime, out.EndTime = &start, &end
		case durationGroup:
			mins, ok := doc.duration(m[1])
			if !ok && doc.strategy == StrategyFallback {
				// Left absent so the span of the timestamps is used instead.
				return
			}
			out.DurationMinutes = &mins
		default:
			for i, f := range p.fields {
				out.setNumber(f, doc.number(f, m[i+1]))
			}
		}
		return
	}
}
