package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily hunting table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	days := pipeline.AggregateDays(filtered, since, until)

	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY HUNTING  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatMinutes(d.Minutes),
			cli.FormatCompact(d.TotalXPGain),
			cli.FormatNumber(int64(d.MonstersKilled)),
			cli.FormatGold(d.Balance),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Sessions", "Hunted", "XP", "Kills", "Balance"},
		Rows:    rows,
	}))

	// Oldest to newest for the trend line
	trend := make([]float64, len(days))
	for i, d := range days {
		trend[len(days)-1-i] = float64(d.TotalXPGain)
	}
	fmt.Printf("\n  XP trend  %s\n\n", cli.RenderSparkline(trend))

	return nil
}
