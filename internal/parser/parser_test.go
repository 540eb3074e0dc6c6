package parser

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standardLog = `Session data: From 2024-01-15, 14:30:00 to 2024-01-15, 16:08:00
Session: 01:38h
Raw XP Gain: 1,234,567
XP Gain: 1,500,000
Raw XP/h: 755,000
XP/h: 920,000
Loot: 450,000
Supplies: 120,000
Balance: 330,000
Damage: 2,000,000
Damage/h: 1,200,000
Healing: 300,000
Healing/h: 180,000
Killed Monsters:
  12x Cliff Strider
  8x Ironblight
Looted Items:
  3x gold coin, 1x crystal coin
  2x platinum coin
`

func newUTCParser(opts ...Option) *Parser {
	return New(append([]Option{WithLocation(time.UTC)}, opts...)...)
}

func ptr[T any](v T) *T { return &v }

func TestParse_StandardLog(t *testing.T) {
	f, ok := newUTCParser().Parse(standardLog)
	require.True(t, ok)

	assert.Equal(t, "standard", f.Strategy)
	assert.Equal(t, FormatDotDecimal, f.Format)
	assert.Equal(t, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), *f.StartTime)
	assert.Equal(t, time.Date(2024, 1, 15, 16, 8, 0, 0, time.UTC), *f.EndTime)
	assert.Equal(t, ptr(98), f.DurationMinutes)

	assert.Equal(t, ptr(1234567.0), f.RawXPGain)
	assert.Equal(t, ptr(1500000.0), f.TotalXPGain)
	assert.Equal(t, ptr(755000.0), f.RawXPPerHour)
	assert.Equal(t, ptr(920000.0), f.TotalXPPerHour)
	assert.Equal(t, ptr(450000.0), f.LootValue)
	assert.Equal(t, ptr(120000.0), f.SuppliesValue)
	assert.Equal(t, ptr(330000.0), f.Balance)
	assert.Equal(t, ptr(2000000.0), f.DamageDealt)
	assert.Equal(t, ptr(1200000.0), f.DamagePerHour)
	assert.Equal(t, ptr(300000.0), f.HealingDone)
	assert.Equal(t, ptr(180000.0), f.HealingPerHour)

	assert.Equal(t, []Entry{
		{Name: "Cliff Strider", Count: 12},
		{Name: "Ironblight", Count: 8},
	}, f.KilledMonsters)
	assert.Equal(t, []Entry{
		{Name: "gold coin", Count: 3},
		{Name: "crystal coin", Count: 1},
		{Name: "platinum coin", Count: 2},
	}, f.LootedItems)
	assert.Empty(t, f.Diagnostics)
}

func TestParse_SameValuesEitherConvention(t *testing.T) {
	commaDecimal := strings.NewReplacer(
		"1,234,567", "1.234.567",
		"1,500,000", "1.500.000",
		"755,000", "755.000",
		"920,000", "920.000",
		"450,000", "450.000",
		"120,000", "120.000",
		"330,000", "330.000",
		"2,000,000", "2.000.000",
		"1,200,000", "1.200.000",
		"300,000", "300.000",
		"180,000", "180.000",
	).Replace(standardLog)

	p := newUTCParser()
	a, ok := p.Parse(standardLog)
	require.True(t, ok)
	b, ok := p.Parse(commaDecimal)
	require.True(t, ok)

	assert.Equal(t, FormatCommaDecimal, b.Format)
	assert.JSONEq(t, string(mustJSON(t, a)), string(mustJSON(t, b)))
}

func TestParse_FractionalValuesEitherConvention(t *testing.T) {
	p := newUTCParser()
	dot, ok := p.Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nLoot: 1,234.5\nSupplies: 234.25\nBalance: 1,000.25\n")
	require.True(t, ok)
	comma, ok := p.Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nLoot: 1.234,5\nSupplies: 234,25\nBalance: 1.000,25\n")
	require.True(t, ok)

	assert.Equal(t, ptr(1234.5), dot.LootValue)
	assert.Equal(t, ptr(234.25), dot.SuppliesValue)
	assert.Equal(t, ptr(1000.25), dot.Balance)
	assert.JSONEq(t, string(mustJSON(t, dot)), string(mustJSON(t, comma)))
}

func TestParse_Idempotent(t *testing.T) {
	p := newUTCParser()
	first, ok := p.Parse(standardLog)
	require.True(t, ok)
	second, ok := p.Parse(standardLog)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestParse_ConcurrentCallsShareNothing(t *testing.T) {
	p := newUTCParser()
	want, _ := p.Parse(standardLog)
	other := strings.ReplaceAll(standardLog, ",", ".")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				got, _ := p.Parse(standardLog)
				assert.Equal(t, want, got)
				return
			}
			got, _ := p.Parse(other)
			assert.Equal(t, FormatCommaDecimal, got.Format)
		}(i)
	}
	wg.Wait()
}

func TestParse_NegativeBalance(t *testing.T) {
	f, ok := newUTCParser().Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nLoot: 10,000\nSupplies: 22,000\nBalance: -12,000\n")
	require.True(t, ok)
	assert.Equal(t, ptr(-12000.0), f.Balance)
}

func TestParse_SingleLineLayout(t *testing.T) {
	text := "Session data: From 2024-01-15, 14:30:00 to 2024-01-15, 16:08:00 Session: 01:38h " +
		"Raw XP Gain: 1,000 XP Gain: 2,000 Raw XP/h: 600 XP/h: 1,200 " +
		"Loot: 5,000 Supplies: 1,000 Balance: 4,000"

	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 16, 8, 0, 0, time.UTC), *f.EndTime)
	assert.Equal(t, ptr(98), f.DurationMinutes)
	assert.Equal(t, ptr(1000.0), f.RawXPGain)
	assert.Equal(t, ptr(2000.0), f.TotalXPGain)
	assert.Equal(t, ptr(600.0), f.RawXPPerHour)
	assert.Equal(t, ptr(1200.0), f.TotalXPPerHour)
	assert.Equal(t, ptr(4000.0), f.Balance)
	assert.Nil(t, f.KilledMonsters)
}

func TestParse_SingleLineWithSections(t *testing.T) {
	text := "Session data: From 2024-01-15, 14:30:00 to 2024-01-15, 16:08:00 Session: 01:38h " +
		"XP Gain: 2,000 Loot: 5,000 Supplies: 1,000 Balance: 4,000 Healing/h: 1 Healing: 1 " +
		"Killed Monsters: 3x Rat, 2x Troll Looted Items: 1x gold coin, 2x platinum coin"

	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, []Entry{{Name: "Rat", Count: 3}, {Name: "Troll", Count: 2}}, f.KilledMonsters)
	assert.Equal(t, []Entry{{Name: "gold coin", Count: 1}, {Name: "platinum coin", Count: 2}}, f.LootedItems)
	assert.Empty(t, f.Diagnostics)
}

func TestParse_SpaceGroupedOnOneLine(t *testing.T) {
	text := "Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nLoot: 5 000 Supplies: 1 000 Balance: 4 000\n"
	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, ptr(5000.0), f.LootValue)
	assert.Equal(t, ptr(1000.0), f.SuppliesValue)
	assert.Equal(t, ptr(4000.0), f.Balance)
}

func TestParse_ItemsBeforeMonstersOnOneLine(t *testing.T) {
	text := "Session data: From 2024-01-15 14:30 to 2024-01-15 15:30 " +
		"Looted Items: 4x gold coin Killed Monsters: 1x Dragon Lord"

	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, []Entry{{Name: "gold coin", Count: 4}}, f.LootedItems)
	assert.Equal(t, []Entry{{Name: "Dragon Lord", Count: 1}}, f.KilledMonsters)
}

func TestParse_MalformedNumeralDefaultsToZero(t *testing.T) {
	tests := []struct {
		name string
		loot string
	}{
		{"empty", ""},
		{"word", "abc"},
		{"dash", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nLoot: " + tt.loot + "\nSupplies: 120,000\nBalance: 330,000\n"
			f, ok := newUTCParser().Parse(text)
			require.True(t, ok)
			assert.Equal(t, ptr(0.0), f.LootValue)
			assert.Equal(t, ptr(120000.0), f.SuppliesValue)
			require.Len(t, f.Diagnostics, 1)
			assert.Equal(t, DiagMalformedNumber, f.Diagnostics[0].Kind)
			assert.Equal(t, "loot_value", f.Diagnostics[0].Field)
		})
	}
}

func TestParse_MalformedDateDropsBothTimestamps(t *testing.T) {
	f, ok := newUTCParser().Parse("Session data: From 2024-01-15 14:30 to sometime later\nSession: 01:00h\n")
	require.True(t, ok)
	assert.Nil(t, f.StartTime)
	assert.Nil(t, f.EndTime)
	assert.Equal(t, ptr(60), f.DurationMinutes)
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, DiagMalformedDate, f.Diagnostics[0].Kind)
}

func TestParse_MissingGroupsStayAbsent(t *testing.T) {
	f, ok := newUTCParser().Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nXP Gain: 1,000\n")
	require.True(t, ok)
	assert.Nil(t, f.TotalXPGain, "a pair needs both members")
	assert.Nil(t, f.LootValue)
	assert.Nil(t, f.DamageDealt)
	assert.Nil(t, f.DurationMinutes)
	assert.Nil(t, f.KilledMonsters, "section not found")
	assert.Nil(t, f.LootedItems, "section not found")

	raw := string(mustJSON(t, f))
	assert.NotContains(t, raw, "killed_monsters")
	assert.NotContains(t, raw, "looted_items")
}

func TestParse_EmptySection(t *testing.T) {
	f, ok := newUTCParser().Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nKilled Monsters:\nLooted Items:\n1x gold coin\n")
	require.True(t, ok)
	require.NotNil(t, f.KilledMonsters)
	assert.Empty(t, f.KilledMonsters)
	assert.Equal(t, []Entry{{Name: "gold coin", Count: 1}}, f.LootedItems)

	raw := string(mustJSON(t, f))
	assert.Contains(t, raw, `"killed_monsters":[]`)

	var back Fields
	require.NoError(t, json.Unmarshal([]byte(raw), &back))
	assert.Equal(t, f.KilledMonsters, back.KilledMonsters)
	assert.Equal(t, f.LootedItems, back.LootedItems)
}

func TestParse_HuntSummaryLayout(t *testing.T) {
	text := `Hunt Summary:
Hunt period: 2024-02-01 10:00 - 2024-02-01 11:30
Duration: 1:30h
Experience: 900,000
Experience/h: 600,000
Loot: 100,000
Supplies: 40,000
Balance: 60,000
Monsters Killed:
5x Dragon, 2x Dragon Lord
Items Looted:
100x gold coin
`
	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, "hunt-summary", f.Strategy)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), *f.StartTime)
	assert.Equal(t, ptr(90), f.DurationMinutes)
	assert.Equal(t, ptr(900000.0), f.TotalXPGain)
	assert.Nil(t, f.RawXPGain)
	assert.Equal(t, ptr(600000.0), f.TotalXPPerHour)
	assert.Equal(t, ptr(60000.0), f.Balance)
	assert.Equal(t, []Entry{{Name: "Dragon", Count: 5}, {Name: "Dragon Lord", Count: 2}}, f.KilledMonsters)
	assert.Equal(t, []Entry{{Name: "gold coin", Count: 100}}, f.LootedItems)
}

func TestParse_RelatorioLayout(t *testing.T) {
	text := `Relatório de Caça:
Período: 15/01/2024, 14:30 até 15/01/2024, 16:00
Duração: 1:30h
Experiência: 1.500.000
Valor do Loot: 250.000
Custo de Suprimentos: 100.000
Lucro: 150.000
Monstros Mortos:
10x Dragão
Itens Saqueados:
50x moeda de ouro
`
	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, "relatorio", f.Strategy)
	assert.Equal(t, FormatCommaDecimal, f.Format)
	assert.Equal(t, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), *f.StartTime)
	assert.Equal(t, time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC), *f.EndTime)
	assert.Equal(t, ptr(90), f.DurationMinutes)
	assert.Equal(t, ptr(1500000.0), f.TotalXPGain)
	assert.Equal(t, ptr(250000.0), f.LootValue)
	assert.Equal(t, ptr(100000.0), f.SuppliesValue)
	assert.Equal(t, ptr(150000.0), f.Balance)
	assert.Equal(t, []Entry{{Name: "Dragão", Count: 10}}, f.KilledMonsters)
	assert.Equal(t, []Entry{{Name: "moeda de ouro", Count: 50}}, f.LootedItems)
}

func TestParse_FirstClaimingStrategyWins(t *testing.T) {
	text := "Hunt Summary:\nSession data: From 2024-01-15 14:30 to 2024-01-15 15:30\n"
	f, ok := newUTCParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, "standard", f.Strategy)
}

func TestParse_NoStrategyClaimsUnknownText(t *testing.T) {
	text := "Experience: 1,000\nsome notes about the hunt"
	p := newUTCParser()
	for _, s := range p.Strategies() {
		assert.False(t, s.CanParse(text), s.Name)
	}

	f, ok := p.Parse(text)
	assert.False(t, ok)
	assert.Nil(t, f)

	got, claimed := p.ParseOrExtract(text)
	assert.False(t, claimed)
	assert.Equal(t, StrategyFallback, got.Strategy)
	assert.Equal(t, ptr(1000.0), got.TotalXPGain)
}

func TestParseStrict_RejectsBinary(t *testing.T) {
	_, _, err := newUTCParser().ParseStrict("Loot: \xff\x00\x01\x02")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseStrict_DecodesWindows1252(t *testing.T) {
	// "Relatório de Caça" and "Experiência" as single Latin-1 bytes.
	text := "Relat\xf3rio de Ca\xe7a:\nPer\xedodo: 15/01/2024 14:00 at\xe9 15/01/2024 15:00\n" +
		"Experi\xeancia: 1.200.000\nMonstros Mortos:\n3x Drag\xe3o\n"

	f, claimed, err := newUTCParser().ParseStrict(text)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "relatorio", f.Strategy)
	assert.Equal(t, ptr(1200000.0), f.TotalXPGain)
	assert.Equal(t, []Entry{{Name: "Dragão", Count: 3}}, f.KilledMonsters)
	require.NotEmpty(t, f.Diagnostics)
	assert.Equal(t, DiagLegacyEncoding, f.Diagnostics[len(f.Diagnostics)-1].Kind)
}

func TestParseStrict_UTF8HasNoEncodingDiagnostic(t *testing.T) {
	f, _, err := newUTCParser().ParseStrict(standardLog)
	require.NoError(t, err)
	for _, d := range f.Diagnostics {
		assert.NotEqual(t, DiagLegacyEncoding, d.Kind)
	}
}

func TestParse_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	p := newUTCParser(WithLogger(zerolog.New(&buf)))
	p.Parse("Session data: From 2024-01-15 14:30 to 2024-01-15 15:30\nKilled Monsters:\nlots of rats\n")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"field":"killed_monsters"`)
	assert.Contains(t, out, `"input":"lots of rats"`)
}

func TestWithStrategies_Order(t *testing.T) {
	var hunt, standard Strategy
	for _, s := range New().Strategies() {
		switch s.Name {
		case "hunt-summary":
			hunt = s
		case "standard":
			standard = s
		}
	}
	p := newUTCParser(WithStrategies(hunt, standard))
	f, ok := p.Parse("Hunt Summary:\nSession data: From 2024-01-15 14:30 to 2024-01-15 15:30\n")
	require.True(t, ok)
	assert.Equal(t, "hunt-summary", f.Strategy)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func FuzzParseOrExtract(f *testing.F) {
	f.Add(standardLog)
	f.Add("Hunt Summary:\nHunt period: 2024-02-01 10:00 - 2024-02-01 11:30\nExperience: 1.5")
	f.Add("Start: 2024-01-15 14:30\nEnd: x\nLoot: ,,,\nKilled Monsters:\n0x\n")
	f.Add("")

	p := newUTCParser()
	f.Fuzz(func(t *testing.T, text string) {
		got, _ := p.ParseOrExtract(text)
		if got == nil {
			t.Fatal("nil fields")
		}
		for _, v := range []*float64{
			got.RawXPGain, got.TotalXPGain, got.RawXPPerHour, got.TotalXPPerHour,
			got.LootValue, got.SuppliesValue, got.Balance,
			got.DamageDealt, got.DamagePerHour, got.HealingDone, got.HealingPerHour,
		} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				t.Fatalf("non-finite value %v", *v)
			}
		}
		for _, e := range append(got.KilledMonsters, got.LootedItems...) {
			if e.Count < 1 || e.Name == "" {
				t.Fatalf("bad entry %+v", e)
			}
		}
	})
}
