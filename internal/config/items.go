package config

import (
	"strings"
	"time"
)

type itemValueVersion struct {
	EffectiveFrom time.Time
	UnitValue     int64
}

// DefaultItemValues maps normalized item names to their per-unit gold value
// at NPC or market rates.
var DefaultItemValues = map[string]int64{
	"gold coin":          1,
	"platinum coin":      100,
	"crystal coin":       10_000,
	"small amethyst":     200,
	"small diamond":      300,
	"small emerald":      250,
	"small ruby":         250,
	"small sapphire":     250,
	"small topaz":        200,
	"black pearl":        280,
	"white pearl":        160,
	"gold ingot":         5_000,
	"dragon ham":         0,
	"dragon shield":      4_000,
	"dragon hammer":      2_000,
	"dragon scale mail":  40_000,
	"royal helmet":       30_000,
	"knight armor":       5_000,
	"knight legs":        5_000,
	"crown armor":        12_000,
	"giant sword":        17_000,
	"boots of haste":     30_000,
	"stone skin amulet":  500,
	"might ring":         250,
	"cliff strider claw": 1_200,
	"ironblight shard":   750,
}

// defaultItemValueHistory stores effective-dated values for each item.
// Entries must be sorted by EffectiveFrom ascending.
var defaultItemValueHistory = makeDefaultItemValueHistory(DefaultItemValues)

func makeDefaultItemValueHistory(base map[string]int64) map[string][]itemValueVersion {
	history := make(map[string][]itemValueVersion, len(base))
	for name, v := range base {
		history[name] = []itemValueVersion{{UnitValue: v}}
	}
	return history
}

// NormalizeItemName folds an item name as written in a loot list to its
// table key: lower case, single spaces, no leading article.
// e.g., "A Dragon Shield" -> "dragon shield"
func NormalizeItemName(raw string) string {
	name := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	for _, article := range []string{"a ", "an ", "the "} {
		if rest, ok := strings.CutPrefix(name, article); ok {
			name = rest
			break
		}
	}
	return name
}

// ItemValuer resolves unit values, preferring user overrides.
type ItemValuer struct {
	overrides map[string]int64
}

// NewItemValuer builds a valuer from the [items.values] config section.
func NewItemValuer(cfg Config) *ItemValuer {
	v := &ItemValuer{overrides: make(map[string]int64, len(cfg.Items.Values))}
	for name, value := range cfg.Items.Values {
		v.overrides[NormalizeItemName(name)] = value
	}
	return v
}

// UnitValueAt returns the per-unit value of an item when it was looted.
// If at is zero, the latest known value is used.
func (v *ItemValuer) UnitValueAt(name string, at time.Time) (int64, bool) {
	key := NormalizeItemName(name)
	if v != nil {
		if value, ok := v.overrides[key]; ok {
			return value, true
		}
	}
	if value, ok := LookupItemValueAt(key, at); ok {
		return value, true
	}
	// "gold coins" and friends.
	if singular, ok := strings.CutSuffix(key, "s"); ok {
		if v != nil {
			if value, ok := v.overrides[singular]; ok {
				return value, true
			}
		}
		return LookupItemValueAt(singular, at)
	}
	return 0, false
}

// LookupItemValueAt returns the built-in value of a normalized item name at
// the given time.
func LookupItemValueAt(name string, at time.Time) (int64, bool) {
	versions, ok := defaultItemValueHistory[name]
	if !ok || len(versions) == 0 {
		v, fallback := DefaultItemValues[name]
		return v, fallback
	}

	if at.IsZero() {
		return versions[len(versions)-1].UnitValue, true
	}

	at = at.UTC()
	selected := versions[0].UnitValue
	for _, ver := range versions {
		if ver.EffectiveFrom.IsZero() || !at.Before(ver.EffectiveFrom.UTC()) {
			selected = ver.UnitValue
			continue
		}
		break
	}
	return selected, true
}
