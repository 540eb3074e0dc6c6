package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Hunting summary with XP, loot and balance",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("\n  No hunting sessions imported yet.")
		fmt.Println("  Paste a session log into `huntlog import -` to get started.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	cmp := pipeline.Compare(filtered, since, until)
	stats, prevStats := cmp.Current, cmp.Previous

	if stats.TotalSessions == 0 {
		fmt.Println("\n  No sessions found in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HUNTING  Last %dd", flagDays)))
	fmt.Println()

	rows := [][]string{
		{"Sessions", cli.FormatNumber(int64(stats.TotalSessions))},
		{"Hunted", cli.FormatMinutes(stats.TotalMinutes)},
		{"Active days", cli.FormatNumber(int64(stats.ActiveDays))},
		{"Monsters killed", cli.FormatNumber(int64(stats.MonstersKilled))},
		{"---"},
		{"Raw XP", cli.FormatNumber(stats.RawXPGain)},
		{"XP", cli.FormatNumber(stats.TotalXPGain)},
		{"XP/h (avg)", cli.FormatNumber(int64(stats.AvgXPPerHour + 0.5))},
		{"XP/h (best)", cli.FormatNumber(stats.BestXPPerHour)},
		{"XP/h (worst)", cli.FormatNumber(stats.WorstXPPerHour)},
		{"---"},
		{"Loot", cli.FormatGold(stats.LootValue)},
		{"Supplies", cli.FormatGold(stats.SuppliesValue)},
		{"Balance", cli.FormatGold(stats.Balance)},
		{"Damage", cli.FormatCompact(stats.DamageDealt)},
		{"Healing", cli.FormatCompact(stats.HealingDone)},
		{"---"},
	}

	// Balance per day with delta
	balanceDay := fmt.Sprintf("%s/day", cli.FormatGold(int64(stats.BalancePerDay)))
	if prevStats.TotalSessions > 0 {
		balanceDay += fmt.Sprintf("  (%s vs prev %dd)",
			cli.FormatDelta(int64(stats.BalancePerDay), int64(prevStats.BalancePerDay)), flagDays)
	}
	rows = append(rows, []string{"Balance/day", balanceDay})
	rows = append(rows, []string{"XP/day", cli.FormatCompact(int64(stats.XPPerDay))})
	rows = append(rows, []string{"Sessions/day", fmt.Sprintf("%.1f", stats.SessionsPerDay)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if goal := appCfg.Goals.MonthlyBalance; goal != nil {
		fmt.Println()
		printGoal(pipeline.ComputeGoal(filtered, *goal, until))
	}

	return nil
}
