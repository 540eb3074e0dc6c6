package config

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestLookupItemValueAt_UsesEffectiveDate(t *testing.T) {
	item := "test item windowed"
	orig, had := defaultItemValueHistory[item]
	if had {
		defer func() { defaultItemValueHistory[item] = orig }()
	} else {
		defer delete(defaultItemValueHistory, item)
	}

	defaultItemValueHistory[item] = []itemValueVersion{
		{EffectiveFrom: mustDate(t, "2025-01-01"), UnitValue: 100},
		{EffectiveFrom: mustDate(t, "2025-07-01"), UnitValue: 250},
	}

	apr, ok := LookupItemValueAt(item, mustDate(t, "2025-04-15"))
	if !ok {
		t.Fatal("LookupItemValueAt returned !ok for historical item")
	}
	if apr != 100 {
		t.Fatalf("April value = %d, want 100", apr)
	}

	aug, ok := LookupItemValueAt(item, mustDate(t, "2025-08-15"))
	if !ok {
		t.Fatal("LookupItemValueAt returned !ok in later window")
	}
	if aug != 250 {
		t.Fatalf("August value = %d, want 250", aug)
	}
}

func TestLookupItemValueAt_UsesLatestWhenTimeZero(t *testing.T) {
	item := "test item latest"
	orig, had := defaultItemValueHistory[item]
	if had {
		defer func() { defaultItemValueHistory[item] = orig }()
	} else {
		defer delete(defaultItemValueHistory, item)
	}

	defaultItemValueHistory[item] = []itemValueVersion{
		{EffectiveFrom: mustDate(t, "2025-01-01"), UnitValue: 1},
		{EffectiveFrom: mustDate(t, "2025-09-01"), UnitValue: 3},
	}

	v, ok := LookupItemValueAt(item, time.Time{})
	if !ok {
		t.Fatal("LookupItemValueAt returned !ok for item with history")
	}
	if v != 3 {
		t.Fatalf("zero-time lookup = %d, want 3", v)
	}
}

func TestNormalizeItemName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gold coin", "gold coin"},
		{"A Dragon Shield", "dragon shield"},
		{"an  iron   helmet", "iron helmet"},
		{"The Holy Tible", "holy tible"},
		{"  Crystal Coin ", "crystal coin"},
		{"Amulet of Loss", "amulet of loss"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeItemName(tt.in); got != tt.want {
				t.Errorf("NormalizeItemName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestItemValuer_OverridesAndPlurals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Items.Values = map[string]int64{
		"Gold Coin":    2,
		"rare trinket": 900,
	}
	v := NewItemValuer(cfg)

	tests := []struct {
		name   string
		want   int64
		wantOK bool
	}{
		{"gold coin", 2, true},
		{"gold coins", 2, true},
		{"a rare trinket", 900, true},
		{"platinum coins", 100, true},
		{"Crystal Coin", 10_000, true},
		{"mystery box", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.UnitValueAt(tt.name, time.Time{})
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("UnitValueAt(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
