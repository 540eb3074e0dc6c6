package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Progress towards the monthly balance goal",
	RunE:  runGoal,
}

func init() {
	rootCmd.AddCommand(goalCmd)
}

func runGoal(_ *cobra.Command, _ []string) error {
	if appCfg.Goals.MonthlyBalance == nil {
		fmt.Println()
		fmt.Println("  No monthly balance goal configured.")
		fmt.Println("  Set one with `huntlog setup` or HUNTLOG_MONTHLY_BALANCE.")
		fmt.Println()
		return nil
	}

	sessions, err := loadData()
	if err != nil {
		return err
	}
	filtered, _, _ := applyFilters(sessions)

	fmt.Println()
	printGoal(pipeline.ComputeGoal(filtered, *appCfg.Goals.MonthlyBalance, time.Now()))
	return nil
}

func printGoal(g model.GoalStats) {
	fmt.Printf("  %s %s of %s\n",
		cli.RenderLabel("Monthly goal:"),
		cli.RenderBalance(g.CurrentBalance),
		cli.FormatGold(g.MonthlyGoal))

	current := g.CurrentBalance
	if current < 0 {
		current = 0
	}
	if g.MonthlyGoal > 0 {
		fmt.Printf("  %s  %.0f%%\n", cli.RenderProgressBar(int(current), int(g.MonthlyGoal), 30), g.GoalPercent)
	}
	fmt.Printf("  %s %s/day, projected %s with %d days left\n\n",
		cli.RenderLabel("Pace:"),
		cli.FormatGold(int64(g.DailyBalanceRate)),
		cli.FormatGold(g.ProjectedBalance),
		g.DaysRemaining)
}
