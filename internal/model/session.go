// Package model defines domain types for huntlog sessions and metrics.
package model

import "time"

// KilledMonster is one monster line of a session, as logged.
type KilledMonster struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LootedItem is one loot line of a session. Value is the gold value of the
// whole line when the item table knows the item.
type LootedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Value *int64 `json:"value,omitempty"`
}

// HuntSession holds one imported hunting session.
type HuntSession struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path,omitempty"`
	Character  string    `json:"character,omitempty"`
	Strategy   string    `json:"strategy"`
	ImportedAt time.Time `json:"imported_at"`

	StartTime       time.Time `json:"start_datetime"`
	EndTime         time.Time `json:"end_datetime"`
	DurationMinutes int64     `json:"duration_minutes"`

	RawXPGain      int64 `json:"raw_xp_gain"`
	TotalXPGain    int64 `json:"total_xp_gain"`
	RawXPPerHour   int64 `json:"raw_xp_per_hour"`
	TotalXPPerHour int64 `json:"total_xp_per_hour"`

	LootValue     int64 `json:"loot_value"`
	SuppliesValue int64 `json:"supplies_value"`
	Balance       int64 `json:"balance"`

	DamageDealt    int64 `json:"damage_dealt"`
	DamagePerHour  int64 `json:"damage_per_hour"`
	HealingDone    int64 `json:"healing_done"`
	HealingPerHour int64 `json:"healing_per_hour"`

	KilledMonsters []KilledMonster `json:"killed_monsters"`
	LootedItems    []LootedItem    `json:"looted_items"`
}

// MonstersKilled is the total kill count of the session.
func (s HuntSession) MonstersKilled() int {
	n := 0
	for _, m := range s.KilledMonsters {
		n += m.Count
	}
	return n
}

// ItemsValue sums the known values of the looted items.
func (s HuntSession) ItemsValue() int64 {
	var v int64
	for _, it := range s.LootedItems {
		if it.Value != nil {
			v += *it.Value
		}
	}
	return v
}
