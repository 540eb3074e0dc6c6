package parser

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultLabelsYAML []byte

// SectionLabels are the header and stop aliases of one list section.
type SectionLabels struct {
	Headers []string `yaml:"headers"`
	Stops   []string `yaml:"stops"`
}

// LabelSet is the alias table behind the fallback extractor and format
// detection. Adding a locale means adding aliases, not code.
type LabelSet struct {
	Fields     map[string][]string      `yaml:"fields"`
	Durations  []string                 `yaml:"durations"`
	DateRanges []string                 `yaml:"date_ranges"`
	Sections   map[string]SectionLabels `yaml:"sections"`

	dates    fieldGroup
	duration fieldGroup
	numeric  []fieldGroup
	monsters sectionRule
	items    sectionRule
	detect   *regexp.Regexp
}

var (
	defaultLabelsOnce sync.Once
	defaultLabels     *LabelSet
)

// DefaultLabels returns the built-in English and Portuguese labels.
func DefaultLabels() *LabelSet {
	defaultLabelsOnce.Do(func() {
		ls, err := LoadLabels(defaultLabelsYAML)
		if err != nil {
			panic(fmt.Sprintf("parser: embedded labels: %v", err))
		}
		defaultLabels = ls
	})
	return defaultLabels
}

// LoadLabelsFile reads a label table from a YAML file.
func LoadLabelsFile(path string) (*LabelSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	return LoadLabels(data)
}

// LoadLabels parses and compiles a label table.
func LoadLabels(data []byte) (*LabelSet, error) {
	var ls LabelSet
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	if err := ls.compile(); err != nil {
		return nil, err
	}
	return &ls, nil
}

func (ls *LabelSet) compile() error {
	ls.dates = fieldGroup{name: "date range", kind: dateRangeGroup}
	for _, expr := range ls.DateRanges {
		re, err := regexp.Compile(`(?im)` + expr)
		if err != nil {
			return fmt.Errorf("date range %q: %w", expr, err)
		}
		if re.NumSubexp() < 2 {
			return fmt.Errorf("date range %q: need two capture groups", expr)
		}
		ls.dates.patterns = append(ls.dates.patterns, groupPattern{re: re, fields: []field{fieldStart, fieldEnd}})
	}

	if len(ls.Durations) > 0 {
		ls.duration = duration(ls.Durations...)
	}

	var all []string
	ls.numeric = ls.numeric[:0]
	for name, aliases := range ls.Fields {
		f, ok := fieldByName(name)
		if !ok || !f.numeric() {
			return fmt.Errorf("labels: unknown numeric field %q", name)
		}
		g := fieldGroup{name: name, kind: numericGroup}
		for _, a := range aliases {
			if strings.TrimSpace(a) == "" {
				continue
			}
			g.patterns = append(g.patterns, groupPattern{re: seq(a), fields: []field{f}})
			all = append(all, a)
		}
		ls.numeric = append(ls.numeric, g)
	}
	// Map order is random; extraction order must not be.
	sort.Slice(ls.numeric, func(i, j int) bool {
		fi, _ := fieldByName(ls.numeric[i].name)
		fj, _ := fieldByName(ls.numeric[j].name)
		return fi < fj
	})

	for name, sec := range ls.Sections {
		switch name {
		case "killed_monsters":
			ls.monsters = newSectionRule(sec.Headers, sec.Stops)
		case "looted_items":
			ls.items = newSectionRule(sec.Headers, sec.Stops)
		default:
			return fmt.Errorf("labels: unknown section %q", name)
		}
	}

	if len(all) == 0 {
		ls.detect = nil
		return nil
	}
	sort.Slice(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	ls.detect = compile(labelBoundary + `(?:` + alternation(all) + `)[ \t]*:[ \t]*(-?\d+(?:[.,]\d+)*)`)
	return nil
}

// extract is the fallback path: every field is looked up on its own.
func (ls *LabelSet) extract(doc *document) *Fields {
	out := &Fields{Strategy: StrategyFallback, Format: doc.format}

	ls.dates.extract(doc, out)
	ls.duration.extract(doc, out)
	for _, g := range ls.numeric {
		g.extract(doc, out)
	}

	out.KilledMonsters = make([]Entry, 0)
	if body, ok := ls.monsters.extract(doc.text); ok {
		out.KilledMonsters = doc.entries("killed_monsters", body)
	}
	out.LootedItems = make([]Entry, 0)
	if body, ok := ls.items.extract(doc.text); ok {
		out.LootedItems = doc.entries("looted_items", body)
	}

	derive(out)
	return out
}

// derive fills fields that follow from ones already present.
func derive(out *Fields) {
	if out.DurationMinutes == nil && out.StartTime != nil && out.EndTime != nil {
		ms := out.EndTime.Sub(*out.StartTime).Milliseconds()
		d := int(round(float64(ms) / 60000))
		out.DurationMinutes = &d
	}

	if out.DurationMinutes != nil && *out.DurationMinutes > 0 {
		mins := float64(*out.DurationMinutes)
		perHour := func(total *float64, rate **float64) {
			if *rate == nil && total != nil {
				v := round(*total * 60 / mins)
				*rate = &v
			}
		}
		perHour(out.TotalXPGain, &out.TotalXPPerHour)
		perHour(out.RawXPGain, &out.RawXPPerHour)
		perHour(out.DamageDealt, &out.DamagePerHour)
		perHour(out.HealingDone, &out.HealingPerHour)
	}

	if out.Balance == nil && out.LootValue != nil && out.SuppliesValue != nil {
		v := *out.LootValue - *out.SuppliesValue
		out.Balance = &v
	}
}
