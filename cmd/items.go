package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Most valuable loot",
	RunE:  runItems,
}

var (
	itemsTop    int
	itemsFilter string
)

func init() {
	itemsCmd.Flags().IntVarP(&itemsTop, "top", "t", 20, "Number of items to show (0 for all)")
	itemsCmd.Flags().StringVarP(&itemsFilter, "item", "i", "", "Only sessions that looted this item (substring match)")
	rootCmd.AddCommand(itemsCmd)
}

func runItems(_ *cobra.Command, _ []string) error {
	sessions, err := loadData()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(sessions)
	filtered = pipeline.FilterByItem(filtered, itemsFilter)
	stats := pipeline.Aggregate(filtered, since, until)
	items := pipeline.Top(pipeline.AggregateItems(filtered, since, until), itemsTop)

	if len(items) == 0 {
		fmt.Println("\n  No loot recorded in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("LOOT  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(items))
	var known int64
	for _, it := range items {
		value := "?"
		if it.Value > 0 {
			value = cli.FormatGold(it.Value)
			known += it.Value
		}
		rows = append(rows, []string{
			truncate(it.Name, 24),
			cli.FormatNumber(int64(it.Count)),
			cli.FormatNumber(int64(it.Sessions)),
			value,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Item", "Count", "Sessions", "Value"},
		Rows:    rows,
	}))

	fmt.Printf("\n  %s %s of %s logged loot\n\n",
		cli.RenderLabel("Valued:"), cli.FormatGold(known), cli.FormatGold(stats.LootValue))

	return nil
}
