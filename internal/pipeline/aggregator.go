// Package pipeline orchestrates log loading, session assembly, and metric aggregation.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
)

// Aggregate computes summary statistics from a slice of sessions,
// filtered to sessions within the given time range.
func Aggregate(sessions []model.HuntSession, since, until time.Time) model.SummaryStats {
	filtered := FilterByTime(sessions, since, until)

	var stats model.SummaryStats
	activeDays := make(map[string]struct{})
	rated := 0

	for _, s := range filtered {
		stats.TotalSessions++
		stats.TotalMinutes += s.DurationMinutes
		stats.MonstersKilled += s.MonstersKilled()

		stats.RawXPGain += s.RawXPGain
		stats.TotalXPGain += s.TotalXPGain
		stats.LootValue += s.LootValue
		stats.SuppliesValue += s.SuppliesValue
		stats.DamageDealt += s.DamageDealt
		stats.HealingDone += s.HealingDone

		if rate, ok := XPPerHour(s); ok {
			if rated == 0 || rate > stats.BestXPPerHour {
				stats.BestXPPerHour = rate
			}
			if rated == 0 || rate < stats.WorstXPPerHour {
				stats.WorstXPPerHour = rate
			}
			rated++
		}

		activeDays[s.StartTime.Local().Format("2006-01-02")] = struct{}{}
	}

	stats.ActiveDays = len(activeDays)
	stats.Balance = stats.LootValue - stats.SuppliesValue
	if stats.TotalMinutes > 0 {
		stats.AvgXPPerHour = float64(stats.TotalXPGain) / float64(stats.TotalMinutes) * 60
	}

	// Per-active-day rates
	if stats.ActiveDays > 0 {
		days := float64(stats.ActiveDays)
		stats.XPPerDay = float64(stats.TotalXPGain) / days
		stats.BalancePerDay = float64(stats.Balance) / days
		stats.SessionsPerDay = float64(stats.TotalSessions) / days
		stats.MinutesPerDay = float64(stats.TotalMinutes) / days
	}

	return stats
}

// XPPerHour is the session's XP rate: the logged one, or total XP over
// duration when the log had none. ok is false when neither is known.
func XPPerHour(s model.HuntSession) (int64, bool) {
	if s.TotalXPPerHour != 0 {
		return s.TotalXPPerHour, true
	}
	if s.DurationMinutes > 0 {
		return int64(float64(s.TotalXPGain)/float64(s.DurationMinutes)*60 + 0.5), true
	}
	return 0, false
}

// AggregateDays computes per-day statistics from sessions.
func AggregateDays(sessions []model.HuntSession, since, until time.Time) []model.DailyStats {
	filtered := FilterByTime(sessions, since, until)

	dayMap := make(map[string]*model.DailyStats)

	for _, s := range filtered {
		dayKey := s.StartTime.Local().Format("2006-01-02")
		ds, ok := dayMap[dayKey]
		if !ok {
			t, _ := time.ParseInLocation("2006-01-02", dayKey, time.Local)
			ds = &model.DailyStats{Date: t}
			dayMap[dayKey] = ds
		}

		ds.Sessions++
		ds.Minutes += s.DurationMinutes
		ds.TotalXPGain += s.TotalXPGain
		ds.LootValue += s.LootValue
		ds.SuppliesValue += s.SuppliesValue
		ds.MonstersKilled += s.MonstersKilled()
	}

	// Fill in every day in the range so charts show gaps as zeros
	if !since.IsZero() && !until.IsZero() {
		day := startOfDay(since)
		end := startOfDay(until)
		for !day.After(end) {
			dayKey := day.Format("2006-01-02")
			if _, ok := dayMap[dayKey]; !ok {
				dayMap[dayKey] = &model.DailyStats{Date: day}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	// Convert to sorted slice (most recent first)
	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		ds.Balance = ds.LootValue - ds.SuppliesValue
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})

	return days
}

func startOfDay(t time.Time) time.Time {
	l := t.Local()
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.Local)
}

// AggregateMonsters sums kills per monster name, most killed first.
func AggregateMonsters(sessions []model.HuntSession, since, until time.Time) []model.MonsterStats {
	filtered := FilterByTime(sessions, since, until)

	byName := make(map[string]*model.MonsterStats)
	total := 0

	for _, s := range filtered {
		seen := make(map[string]bool)
		for _, m := range s.KilledMonsters {
			key := strings.ToLower(m.Name)
			ms, ok := byName[key]
			if !ok {
				ms = &model.MonsterStats{Name: m.Name}
				byName[key] = ms
			}
			ms.Kills += m.Count
			total += m.Count
			if !seen[key] {
				ms.Sessions++
				seen[key] = true
			}
		}
	}

	monsters := make([]model.MonsterStats, 0, len(byName))
	for _, ms := range byName {
		if total > 0 {
			ms.SharePercent = float64(ms.Kills) / float64(total) * 100
		}
		monsters = append(monsters, *ms)
	}
	sort.Slice(monsters, func(i, j int) bool {
		if monsters[i].Kills != monsters[j].Kills {
			return monsters[i].Kills > monsters[j].Kills
		}
		return monsters[i].Name < monsters[j].Name
	})

	return monsters
}

// AggregateItems sums drops per item, most valuable first. Items are grouped
// by their normalized name.
func AggregateItems(sessions []model.HuntSession, since, until time.Time) []model.ItemStats {
	filtered := FilterByTime(sessions, since, until)

	byName := make(map[string]*model.ItemStats)

	for _, s := range filtered {
		seen := make(map[string]bool)
		for _, it := range s.LootedItems {
			key := config.NormalizeItemName(it.Name)
			is, ok := byName[key]
			if !ok {
				is = &model.ItemStats{Name: it.Name}
				byName[key] = is
			}
			is.Count += it.Count
			if it.Value != nil {
				is.Value += *it.Value
			}
			if !seen[key] {
				is.Sessions++
				seen[key] = true
			}
		}
	}

	items := make([]model.ItemStats, 0, len(byName))
	for _, is := range byName {
		items = append(items, *is)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})

	return items
}

// AggregateCharacters computes per-character totals, best balance first.
func AggregateCharacters(sessions []model.HuntSession, since, until time.Time) []model.CharacterStats {
	filtered := FilterByTime(sessions, since, until)

	byChar := make(map[string]*model.CharacterStats)
	for _, s := range filtered {
		cs, ok := byChar[s.Character]
		if !ok {
			cs = &model.CharacterStats{Character: s.Character}
			byChar[s.Character] = cs
		}
		cs.Sessions++
		cs.Minutes += s.DurationMinutes
		cs.TotalXPGain += s.TotalXPGain
		cs.LootValue += s.LootValue
		cs.SuppliesValue += s.SuppliesValue
	}

	chars := make([]model.CharacterStats, 0, len(byChar))
	for _, cs := range byChar {
		cs.Balance = cs.LootValue - cs.SuppliesValue
		chars = append(chars, *cs)
	}
	sort.Slice(chars, func(i, j int) bool {
		if chars[i].Balance != chars[j].Balance {
			return chars[i].Balance > chars[j].Balance
		}
		return chars[i].Character < chars[j].Character
	})
	return chars
}

// AggregateHourly buckets sessions by the local hour they started in.
func AggregateHourly(sessions []model.HuntSession, since, until time.Time) []model.HourlyStats {
	filtered := FilterByTime(sessions, since, until)

	hours := make([]model.HourlyStats, 24)
	for i := range hours {
		hours[i].Hour = i
	}

	for _, s := range filtered {
		h := s.StartTime.Local().Hour()
		hours[h].Sessions++
		hours[h].Minutes += s.DurationMinutes
		hours[h].TotalXPGain += s.TotalXPGain
	}

	return hours
}

// ComputeGoal measures the current month's balance against goal and
// projects it to the end of the month at the month's daily rate so far.
func ComputeGoal(sessions []model.HuntSession, goal int64, now time.Time) model.GoalStats {
	now = now.Local()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0)
	daysInMonth := int(monthEnd.Sub(monthStart).Hours()/24 + 0.5)
	elapsed := now.Day()

	stats := model.GoalStats{
		MonthlyGoal:   goal,
		DaysRemaining: daysInMonth - elapsed,
	}

	for _, s := range FilterByTime(sessions, monthStart, monthEnd) {
		stats.CurrentBalance += s.LootValue - s.SuppliesValue
	}

	stats.DailyBalanceRate = float64(stats.CurrentBalance) / float64(elapsed)
	stats.ProjectedBalance = stats.CurrentBalance + int64(stats.DailyBalanceRate*float64(stats.DaysRemaining))
	if goal > 0 {
		stats.GoalPercent = float64(stats.CurrentBalance) / float64(goal) * 100
	}
	return stats
}

// Compare aggregates the window [since, until) and the window of equal
// length just before it.
func Compare(sessions []model.HuntSession, since, until time.Time) model.PeriodComparison {
	span := until.Sub(since)
	return model.PeriodComparison{
		Current:  Aggregate(sessions, since, until),
		Previous: Aggregate(sessions, since.Add(-span), since),
	}
}

// Top returns at most n leading elements.
func Top[T any](xs []T, n int) []T {
	if n <= 0 || n >= len(xs) {
		return xs
	}
	return xs[:n]
}

// FilterByTime returns sessions whose start time falls within [since, until).
func FilterByTime(sessions []model.HuntSession, since, until time.Time) []model.HuntSession {
	if since.IsZero() && until.IsZero() {
		return sessions
	}

	var result []model.HuntSession
	for _, s := range sessions {
		if !since.IsZero() && s.StartTime.Before(since) {
			continue
		}
		if !until.IsZero() && !s.StartTime.Before(until) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// FilterByMonster returns sessions that killed a monster matching the substring.
func FilterByMonster(sessions []model.HuntSession, monster string) []model.HuntSession {
	if monster == "" {
		return sessions
	}
	var result []model.HuntSession
	for _, s := range sessions {
		for _, m := range s.KilledMonsters {
			if containsIgnoreCase(m.Name, monster) {
				result = append(result, s)
				break
			}
		}
	}
	return result
}

// FilterByItem returns sessions that looted an item matching the substring.
func FilterByItem(sessions []model.HuntSession, item string) []model.HuntSession {
	if item == "" {
		return sessions
	}
	var result []model.HuntSession
	for _, s := range sessions {
		for _, it := range s.LootedItems {
			if containsIgnoreCase(it.Name, item) {
				result = append(result, s)
				break
			}
		}
	}
	return result
}

// FilterByCharacter returns sessions of characters matching the substring.
func FilterByCharacter(sessions []model.HuntSession, character string) []model.HuntSession {
	if character == "" {
		return sessions
	}
	var result []model.HuntSession
	for _, s := range sessions {
		if containsIgnoreCase(s.Character, character) {
			result = append(result, s)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// AggregateTodayHourly computes 24 hourly buckets for today (local time).
func AggregateTodayHourly(sessions []model.HuntSession, now time.Time) []model.HourlyStats {
	todayStart := startOfDay(now)
	return AggregateHourly(sessions, todayStart, todayStart.AddDate(0, 0, 1))
}
