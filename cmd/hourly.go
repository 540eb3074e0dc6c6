package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Hunting activity by hour of day",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	hours := pipeline.AggregateHourly(filtered, since, until)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSION STARTS BY HOUR  Last %dd (local time)", flagDays)))
	fmt.Println()

	// Find max for bar scaling
	var maxMinutes int64
	for _, h := range hours {
		if h.Minutes > maxMinutes {
			maxMinutes = h.Minutes
		}
	}

	const maxBarWidth = 40
	for _, h := range hours {
		barLen := 0
		if maxMinutes > 0 {
			barLen = int(h.Minutes * maxBarWidth / maxMinutes)
		}
		bar := strings.Repeat("█", barLen)
		fmt.Printf("  %02d:00 │ %3d │ %8s │ %s\n", h.Hour, h.Sessions, cli.FormatMinutes(h.Minutes), bar)
	}

	// Find peak hour
	peakHour := 0
	for _, h := range hours {
		if h.Minutes > hours[peakHour].Minutes {
			peakHour = h.Hour
		}
	}
	fmt.Printf("\n  Peak: %02d:00 (%s hunted, %s XP)\n\n",
		peakHour, cli.FormatMinutes(hours[peakHour].Minutes), cli.FormatCompact(hours[peakHour].TotalXPGain))

	return nil
}
