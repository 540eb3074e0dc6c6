package model

// GoalStats tracks the month's balance against the configured goal.
type GoalStats struct {
	MonthlyGoal      int64
	CurrentBalance   int64
	DailyBalanceRate float64
	ProjectedBalance int64
	DaysRemaining    int
	GoalPercent      float64
}
