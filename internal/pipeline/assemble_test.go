package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
)

func ptr[T any](v T) *T { return &v }

func TestAssemble_ZeroFillsAndValuesItems(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 15, 16, 8, 30, 0, time.UTC)
	f := &parser.Fields{
		Strategy:    "standard",
		StartTime:   &start,
		EndTime:     &end,
		TotalXPGain: ptr(1500000.4),
		LootValue:   ptr(450000.5),
		KilledMonsters: []parser.Entry{
			{Name: "Cliff Strider", Count: 12},
		},
		LootedItems: []parser.Entry{
			{Name: "gold coins", Count: 300},
			{Name: "Mystery Box", Count: 1},
		},
	}

	hs, err := Assemble(f, AssembleOptions{SourcePath: "/logs/a.txt", Character: "Knight"})
	require.NoError(t, err)

	assert.Equal(t, int64(99), hs.DurationMinutes, "derived from timestamps, rounded half up")
	assert.Equal(t, int64(1500000), hs.TotalXPGain)
	assert.Equal(t, int64(450001), hs.LootValue)
	assert.Zero(t, hs.RawXPGain)
	assert.Zero(t, hs.Balance)
	assert.Equal(t, "standard", hs.Strategy)
	assert.False(t, hs.ImportedAt.IsZero())

	assert.Equal(t, []model.KilledMonster{{Name: "Cliff Strider", Count: 12}}, hs.KilledMonsters)
	require.Len(t, hs.LootedItems, 2)
	require.NotNil(t, hs.LootedItems[0].Value)
	assert.Equal(t, int64(300), *hs.LootedItems[0].Value)
	assert.Nil(t, hs.LootedItems[1].Value)
}

func TestAssemble_KeepsStatedDuration(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	hs, err := Assemble(&parser.Fields{StartTime: &start, EndTime: &end, DurationMinutes: ptr(95)}, AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(95), hs.DurationMinutes)
	assert.NotNil(t, hs.KilledMonsters)
	assert.NotNil(t, hs.LootedItems)
}

func TestAssemble_UsesItemOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Items.Values = map[string]int64{"Mystery Box": 2500}
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	f := &parser.Fields{StartTime: &start, EndTime: &start, LootedItems: []parser.Entry{{Name: "a mystery box", Count: 2}}}

	hs, err := Assemble(f, AssembleOptions{Items: config.NewItemValuer(cfg)})
	require.NoError(t, err)
	require.NotNil(t, hs.LootedItems[0].Value)
	assert.Equal(t, int64(5000), *hs.LootedItems[0].Value)
}

func TestAssemble_MissingTimestamps(t *testing.T) {
	start := time.Now()
	for _, f := range []*parser.Fields{nil, {}, {StartTime: &start}, {EndTime: &start}} {
		_, err := Assemble(f, AssembleOptions{})
		assert.ErrorIs(t, err, ErrMissingTimestamps)
	}
}

func TestSessionID_Stable(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	id := SessionID("Knight", start, end)

	assert.Equal(t, id, SessionID("Knight", start.In(time.FixedZone("BRT", -3*3600)), end))
	assert.NotEqual(t, id, SessionID("Druid", start, end))
	assert.NotEqual(t, id, SessionID("Knight", start, end.Add(time.Minute)))
	assert.Len(t, id, 36)
}
