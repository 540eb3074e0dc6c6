package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/huntlog/internal/model"
)

func hunt(start time.Time, minutes, xp, loot, supplies int64) model.HuntSession {
	return model.HuntSession{
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		TotalXPGain:     xp,
		LootValue:       loot,
		SuppliesValue:   supplies,
	}
}

func fixtureSessions() []model.HuntSession {
	at := func(day, hour int) time.Time { return time.Date(2024, 3, day, hour, 0, 0, 0, time.Local) }
	gold := int64(300)
	crystal := int64(20_000)

	a := hunt(at(10, 10), 60, 1_000_000, 500_000, 200_000)
	a.Character = "Knight"
	a.KilledMonsters = []model.KilledMonster{{Name: "Dragon", Count: 10}, {Name: "Dragon Lord", Count: 2}}
	a.LootedItems = []model.LootedItem{{Name: "gold coin", Count: 300, Value: &gold}}

	b := hunt(at(10, 14), 120, 3_000_000, 100_000, 300_000)
	b.Character = "Knight"
	b.TotalXPPerHour = 1_400_000
	b.KilledMonsters = []model.KilledMonster{{Name: "dragon", Count: 5}}
	b.LootedItems = []model.LootedItem{{Name: "Crystal Coin", Count: 2, Value: &crystal}, {Name: "Gold Coin", Count: 10}}

	c := hunt(at(11, 10), 30, 500_000, 50_000, 10_000)
	c.Character = "Druid"
	c.KilledMonsters = []model.KilledMonster{{Name: "Wyrm", Count: 20}}

	return []model.HuntSession{a, b, c}
}

func TestAggregate(t *testing.T) {
	stats := Aggregate(fixtureSessions(), time.Time{}, time.Time{})

	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, int64(210), stats.TotalMinutes)
	assert.Equal(t, 2, stats.ActiveDays)
	assert.Equal(t, 37, stats.MonstersKilled)
	assert.Equal(t, int64(4_500_000), stats.TotalXPGain)
	assert.InDelta(t, 4_500_000.0/210*60, stats.AvgXPPerHour, 1e-6)
	assert.Equal(t, int64(1_400_000), stats.BestXPPerHour)
	assert.Equal(t, int64(1_000_000), stats.WorstXPPerHour)
	assert.Equal(t, int64(650_000), stats.LootValue)
	assert.Equal(t, int64(510_000), stats.SuppliesValue)
	assert.Equal(t, int64(140_000), stats.Balance)
	assert.InDelta(t, 70_000, stats.BalancePerDay, 1e-9)
	assert.InDelta(t, 1.5, stats.SessionsPerDay, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, time.Time{}, time.Time{})
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.AvgXPPerHour)
}

func TestAggregateDays_FillsGaps(t *testing.T) {
	since := time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)
	until := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)
	days := AggregateDays(fixtureSessions(), since, until)

	require.Len(t, days, 4)
	assert.Equal(t, 12, days[0].Date.Day(), "most recent first")
	assert.Zero(t, days[0].Sessions)

	mar10 := days[2]
	assert.Equal(t, 10, mar10.Date.Day())
	assert.Equal(t, 2, mar10.Sessions)
	assert.Equal(t, int64(180), mar10.Minutes)
	assert.Equal(t, int64(100_000), mar10.Balance)
	assert.Equal(t, 17, mar10.MonstersKilled)
}

func TestAggregateMonsters(t *testing.T) {
	monsters := AggregateMonsters(fixtureSessions(), time.Time{}, time.Time{})

	require.Len(t, monsters, 3)
	assert.Equal(t, "Wyrm", monsters[0].Name)
	assert.Equal(t, 20, monsters[0].Kills)
	assert.Equal(t, "Dragon", monsters[1].Name)
	assert.Equal(t, 15, monsters[1].Kills, "names fold case")
	assert.Equal(t, 2, monsters[1].Sessions)
	assert.InDelta(t, 15.0/37*100, monsters[1].SharePercent, 1e-9)
}

func TestAggregateItems(t *testing.T) {
	items := AggregateItems(fixtureSessions(), time.Time{}, time.Time{})

	require.Len(t, items, 2)
	assert.Equal(t, "Crystal Coin", items[0].Name)
	assert.Equal(t, int64(20_000), items[0].Value)
	assert.Equal(t, "gold coin", items[1].Name)
	assert.Equal(t, 310, items[1].Count)
	assert.Equal(t, int64(300), items[1].Value, "unvalued lines add nothing")
	assert.Equal(t, 2, items[1].Sessions)
}

func TestAggregateCharacters(t *testing.T) {
	chars := AggregateCharacters(fixtureSessions(), time.Time{}, time.Time{})
	require.Len(t, chars, 2)
	assert.Equal(t, "Knight", chars[0].Character)
	assert.Equal(t, int64(100_000), chars[0].Balance)
	assert.Equal(t, "Druid", chars[1].Character)
	assert.Equal(t, int64(40_000), chars[1].Balance)
}

func TestAggregateHourly(t *testing.T) {
	hours := AggregateHourly(fixtureSessions(), time.Time{}, time.Time{})
	require.Len(t, hours, 24)
	assert.Equal(t, 2, hours[10].Sessions)
	assert.Equal(t, int64(1_500_000), hours[10].TotalXPGain)
	assert.Equal(t, 1, hours[14].Sessions)
	assert.Zero(t, hours[3].Sessions)
}

func TestComputeGoal(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.Local)
	g := ComputeGoal(fixtureSessions(), 1_000_000, now)

	assert.Equal(t, int64(140_000), g.CurrentBalance)
	assert.Equal(t, 20, g.DaysRemaining)
	assert.InDelta(t, 140_000.0/11, g.DailyBalanceRate, 1e-6)
	assert.InDelta(t, 14.0, g.GoalPercent, 1e-9)
	assert.Greater(t, g.ProjectedBalance, g.CurrentBalance)
}

func TestCompare(t *testing.T) {
	until := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)
	pc := Compare(fixtureSessions(), until.AddDate(0, 0, -1), until)
	assert.Equal(t, 1, pc.Current.TotalSessions)
	assert.Equal(t, 2, pc.Previous.TotalSessions)
}

func TestFilters(t *testing.T) {
	sessions := fixtureSessions()

	assert.Len(t, FilterByMonster(sessions, "dragon"), 2)
	assert.Len(t, FilterByMonster(sessions, "lord"), 1)
	assert.Len(t, FilterByItem(sessions, "crystal"), 1)
	assert.Len(t, FilterByCharacter(sessions, "dru"), 1)
	assert.Len(t, FilterByCharacter(sessions, ""), 3)

	since := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	assert.Len(t, FilterByTime(sessions, since, time.Time{}), 2)
	assert.Len(t, FilterByTime(sessions, time.Time{}, since), 1)
}

func TestTop(t *testing.T) {
	xs := []int{1, 2, 3}
	assert.Equal(t, []int{1, 2}, Top(xs, 2))
	assert.Equal(t, xs, Top(xs, 0))
	assert.Equal(t, xs, Top(xs, 10))
}
