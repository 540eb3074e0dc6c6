package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var monstersCmd = &cobra.Command{
	Use:   "monsters",
	Short: "Most killed monsters",
	RunE:  runMonsters,
}

var monstersTop int

func init() {
	monstersCmd.Flags().IntVarP(&monstersTop, "top", "t", 20, "Number of monsters to show (0 for all)")
	rootCmd.AddCommand(monstersCmd)
}

func runMonsters(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	monsters := pipeline.Top(pipeline.AggregateMonsters(filtered, since, until), monstersTop)

	if len(monsters) == 0 {
		fmt.Println("\n  No kills recorded in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MOST KILLED  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(monsters))
	for _, ms := range monsters {
		rows = append(rows, []string{
			truncate(ms.Name, 24),
			cli.FormatNumber(int64(ms.Kills)),
			cli.FormatNumber(int64(ms.Sessions)),
			cli.FormatPercent(ms.SharePercent / 100),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Monster", "Kills", "Sessions", "Share"},
		Rows:    rows,
	}))

	return nil
}
