package model

import "time"

// SummaryStats holds the top-level aggregate across all sessions.
type SummaryStats struct {
	TotalSessions  int
	TotalMinutes   int64
	ActiveDays     int
	MonstersKilled int

	RawXPGain   int64
	TotalXPGain int64

	// AvgXPPerHour is total XP over total hunted time, not a mean of rates.
	AvgXPPerHour   float64
	BestXPPerHour  int64
	WorstXPPerHour int64

	LootValue     int64
	SuppliesValue int64
	Balance       int64
	DamageDealt   int64
	HealingDone   int64

	XPPerDay       float64
	BalancePerDay  float64
	SessionsPerDay float64
	MinutesPerDay  float64
}

// DailyStats holds metrics for a single calendar day.
type DailyStats struct {
	Date           time.Time
	Sessions       int
	Minutes        int64
	TotalXPGain    int64
	LootValue      int64
	SuppliesValue  int64
	Balance        int64
	MonstersKilled int
}

// MonsterStats holds kills of one monster across sessions.
type MonsterStats struct {
	Name         string
	Kills        int
	Sessions     int
	SharePercent float64
}

// ItemStats holds drops of one item across sessions.
type ItemStats struct {
	Name     string
	Count    int
	Sessions int
	Value    int64
}

// HourlyStats holds session counts for one starting hour of the day.
type HourlyStats struct {
	Hour        int
	Sessions    int
	Minutes     int64
	TotalXPGain int64
}

// PeriodComparison holds current and previous period data for delta computation.
type PeriodComparison struct {
	Current  SummaryStats
	Previous SummaryStats
}

// CharacterStats holds totals for one character.
type CharacterStats struct {
	Character     string
	Sessions      int
	Minutes       int64
	TotalXPGain   int64
	LootValue     int64
	SuppliesValue int64
	Balance       int64
}
