package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAny_DerivesDurationAndRate(t *testing.T) {
	text := "Start: 2024-01-15 14:30\nEnd: 2024-01-15 16:08:30\nExperience: 1,500,000\n"
	f := newUTCParser().ExtractAny(text)

	require.NotNil(t, f.StartTime)
	require.NotNil(t, f.EndTime)
	wantMinutes := int(round(float64(f.EndTime.Sub(*f.StartTime).Milliseconds()) / 60000))
	assert.Equal(t, 99, wantMinutes)
	assert.Equal(t, ptr(wantMinutes), f.DurationMinutes)
	assert.Equal(t, ptr(1500000.0), f.TotalXPGain)
	assert.Equal(t, ptr(909091.0), f.TotalXPPerHour)
}

func TestExtractAny_KeepsStatedDurationAndRate(t *testing.T) {
	text := "Data: 15/01/2024 14:30 a 15/01/2024 16:00\nDuração: 1:00h\nExperiência: 600.000\nExperiência/h: 100.000\n"
	f := newUTCParser().ExtractAny(text)

	assert.Equal(t, ptr(60), f.DurationMinutes)
	assert.Equal(t, ptr(600000.0), f.TotalXPGain)
	assert.Equal(t, ptr(100000.0), f.TotalXPPerHour)
}

func TestExtractAny_UnitDuration(t *testing.T) {
	text := "Start: 2024-01-15 14:00\nEnd: 2024-01-15 16:15\nDuration: 2h 15m\nExperience: 1,350,000\n"
	f := newUTCParser().ExtractAny(text)

	assert.Equal(t, ptr(135), f.DurationMinutes)
	assert.Equal(t, ptr(600000.0), f.TotalXPPerHour)
	assert.Empty(t, f.Diagnostics)
}

func TestExtractAny_MalformedDurationUsesTimestamps(t *testing.T) {
	text := "Start: 2024-01-15 14:00\nEnd: 2024-01-15 16:15\nDuration: soon\nExperience: 1,350,000\n"
	f := newUTCParser().ExtractAny(text)

	assert.Equal(t, ptr(135), f.DurationMinutes)
	assert.Equal(t, ptr(600000.0), f.TotalXPPerHour)
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, "duration_minutes", f.Diagnostics[0].Field)
	assert.Equal(t, "soon", f.Diagnostics[0].Input)
}

func TestExtractAny_SpaceGroupedNumerals(t *testing.T) {
	f := newUTCParser().ExtractAny("Loot: 1 234 567\nSupplies: 34\u00a0567\nExperience: 2 000 000,5\n")
	assert.Equal(t, ptr(1234567.0), f.LootValue)
	assert.Equal(t, ptr(34567.0), f.SuppliesValue)
	assert.Equal(t, ptr(1200000.0), f.Balance)
	assert.Equal(t, ptr(2000000.5), f.TotalXPGain)
	assert.Empty(t, f.Diagnostics)
}

func TestExtractAny_AlwaysInitialisesLists(t *testing.T) {
	f := newUTCParser().ExtractAny("nothing useful here")
	require.NotNil(t, f.KilledMonsters)
	require.NotNil(t, f.LootedItems)
	assert.Empty(t, f.KilledMonsters)
	assert.Empty(t, f.LootedItems)
	assert.Nil(t, f.StartTime)
	assert.Nil(t, f.DurationMinutes)

	raw := string(mustJSON(t, f))
	assert.Contains(t, raw, `"killed_monsters":[]`)
	assert.Contains(t, raw, `"looted_items":[]`)
}

func TestExtractAny_BilingualAliases(t *testing.T) {
	text := `Valor do Loot: 250.000
Custo de Suprimentos: 100.000
Monstros Mortos:
10x Dragão, 3x Dragon Lord
Itens Saqueados:
50x moeda de ouro
`
	f := newUTCParser().ExtractAny(text)
	assert.Equal(t, ptr(250000.0), f.LootValue)
	assert.Equal(t, ptr(100000.0), f.SuppliesValue)
	assert.Equal(t, ptr(150000.0), f.Balance, "derived from loot and supplies")
	assert.Equal(t, []Entry{{Name: "Dragão", Count: 10}, {Name: "Dragon Lord", Count: 3}}, f.KilledMonsters)
	assert.Equal(t, []Entry{{Name: "moeda de ouro", Count: 50}}, f.LootedItems)
}

func TestExtractAny_FieldsAreIndependent(t *testing.T) {
	text := "Raw XP Gain: 800\nsomething\nXP Gain: 1,000\nDamage: 5,000\n"
	f := newUTCParser().ExtractAny(text)
	assert.Equal(t, ptr(800.0), f.RawXPGain)
	assert.Equal(t, ptr(1000.0), f.TotalXPGain)
	assert.Equal(t, ptr(5000.0), f.DamageDealt)
	assert.Nil(t, f.DamagePerHour, "no duration to derive from")
}

func TestExtractAny_UnsignedFieldRejectsNegative(t *testing.T) {
	f := newUTCParser().ExtractAny("Experience: -5\nProfit: -5\n")
	assert.Equal(t, ptr(0.0), f.TotalXPGain)
	assert.Equal(t, ptr(-5.0), f.Balance)
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, "total_xp_gain", f.Diagnostics[0].Field)
}

func TestExtractAny_NegativeSpanStillDerivesDuration(t *testing.T) {
	f := newUTCParser().ExtractAny("Start: 2024-01-15 16:00\nEnd: 2024-01-15 15:00\nExperience: 100\n")
	assert.Equal(t, ptr(-60), f.DurationMinutes)
	assert.Nil(t, f.TotalXPPerHour)
}

func TestLoadLabels_CustomLocale(t *testing.T) {
	ls, err := LoadLabels([]byte(`
fields:
  total_xp_gain: [Erfahrung]
  loot_value: [Beute]
durations: [Dauer]
date_ranges:
  - 'Von[ \t]+(.+?)[ \t]+bis[ \t]+(.+?)[ \t]*$'
sections:
  killed_monsters:
    headers: [Getötete Monster]
`))
	require.NoError(t, err)

	p := newUTCParser(WithLabels(ls))
	f := p.ExtractAny("Von 01.02.2024 10:00 bis 01.02.2024 11:00\nDauer: 1:00h\nErfahrung: 1.000\nBeute: 2.500\nGetötete Monster:\n4x Wolf\n")

	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), *f.StartTime)
	assert.Equal(t, ptr(60), f.DurationMinutes)
	assert.Equal(t, ptr(1000.0), f.TotalXPGain)
	assert.Equal(t, ptr(2500.0), f.LootValue)
	assert.Equal(t, ptr(1000.0), f.TotalXPPerHour)
	assert.Equal(t, []Entry{{Name: "Wolf", Count: 4}}, f.KilledMonsters)
	assert.NotNil(t, f.LootedItems)
}

func TestLoadLabels_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "fields:\n  mana: [Mana]\n"},
		{"date field as number", "fields:\n  start_datetime: [Start]\n"},
		{"one capture group", "date_ranges:\n  - 'From (.+)'\n"},
		{"bad regex", "date_ranges:\n  - 'From ((.+)'\n"},
		{"unknown section", "sections:\n  spells:\n    headers: [Spells]\n"},
		{"not yaml", "fields: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLabels([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadLabelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  balance: [Saldo Final]\n"), 0o600))

	ls, err := LoadLabelsFile(path)
	require.NoError(t, err)
	f := newUTCParser(WithLabels(ls)).ExtractAny("Saldo Final: -1.500\n")
	assert.Equal(t, ptr(-1500.0), f.Balance)

	_, err = LoadLabelsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultLabelsCoverEveryNumericField(t *testing.T) {
	ls := DefaultLabels()
	for f := field(0); f < numFields; f++ {
		if !f.numeric() {
			continue
		}
		assert.NotEmpty(t, ls.Fields[f.String()], f.String())
	}
}
