package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "Character ranking by balance",
	RunE:  runCharacters,
}

func init() {
	rootCmd.AddCommand(charactersCmd)
}

func runCharacters(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	chars := pipeline.AggregateCharacters(filtered, since, until)

	if len(chars) == 0 {
		fmt.Println("\n  No character data in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CHARACTERS  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(chars))
	for _, cs := range chars {
		name := cs.Character
		if name == "" {
			name = "(unassigned)"
		}
		rows = append(rows, []string{
			truncate(name, 18),
			cli.FormatNumber(int64(cs.Sessions)),
			cli.FormatMinutes(cs.Minutes),
			cli.FormatCompact(cs.TotalXPGain),
			cli.FormatGold(cs.Balance),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Character", "Sessions", "Hunted", "XP", "Balance"},
		Rows:    rows,
	}))

	return nil
}
