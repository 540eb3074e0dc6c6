package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/parser"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file|-]",
	Short: "Parse a session log and print the fields without storing it",
	Long: "Parse a session log and print what was recognised. Output is a table on\n" +
		"a terminal and JSON when piped or with --json.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

var flagPreviewJSON bool

func init() {
	previewCmd.Flags().BoolVar(&flagPreviewJSON, "json", false, "Print the parsed fields as JSON")
	previewCmd.Flags().BoolVar(&flagStrategyOnly, "strategy-only", false, "Reject logs no known layout recognises")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(_ *cobra.Command, args []string) error {
	in, err := readInput(args)
	if err != nil {
		return err
	}
	p, err := newParser()
	if err != nil {
		return err
	}
	fields, claimed, err := parseInput(p, in, flagStrategyOnly)
	if err != nil {
		return err
	}

	if flagPreviewJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	}

	printFields(fields, claimed)
	return nil
}

func printFields(f *parser.Fields, claimed bool) {
	layout := f.Strategy
	if !claimed {
		layout += " (no known layout)"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PREVIEW  " + layout))
	fmt.Println()

	rows := [][]string{
		{"Start", optTime(f.StartTime)},
		{"End", optTime(f.EndTime)},
		{"Duration", optMinutes(f.DurationMinutes)},
		{"Numbers", f.Format.String()},
		{"---"},
		{"Raw XP", optNumber(f.RawXPGain)},
		{"XP", optNumber(f.TotalXPGain)},
		{"Raw XP/h", optNumber(f.RawXPPerHour)},
		{"XP/h", optNumber(f.TotalXPPerHour)},
		{"---"},
		{"Loot", optNumber(f.LootValue)},
		{"Supplies", optNumber(f.SuppliesValue)},
		{"Balance", optNumber(f.Balance)},
		{"---"},
		{"Damage", optNumber(f.DamageDealt)},
		{"Damage/h", optNumber(f.DamagePerHour)},
		{"Healing", optNumber(f.HealingDone)},
		{"Healing/h", optNumber(f.HealingPerHour)},
		{"---"},
		{"Monsters", optEntries(f.KilledMonsters)},
		{"Items", optEntries(f.LootedItems)},
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Field", "Value"}, Rows: rows}))

	if len(f.Diagnostics) > 0 {
		diag := make([][]string, 0, len(f.Diagnostics))
		for _, d := range f.Diagnostics {
			diag = append(diag, []string{d.Field, string(d.Kind), truncate(strconv.Quote(d.Input), 40)})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Diagnostics (%d)", len(f.Diagnostics)),
			Headers: []string{"Field", "Problem", "Input"},
			Rows:    diag,
		}))
	}
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func optMinutes(m *int) string {
	if m == nil {
		return "-"
	}
	return cli.FormatMinutes(int64(*m))
}

func optNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v == float64(int64(*v)) {
		return cli.FormatNumber(int64(*v))
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// optEntries summarises a list, telling "section missing" apart from "empty".
func optEntries(es []parser.Entry) string {
	if es == nil {
		return "not found"
	}
	if len(es) == 0 {
		return "none"
	}
	total := 0
	names := make([]string, 0, 3)
	for i, e := range es {
		total += e.Count
		if i < 3 {
			names = append(names, e.Name)
		}
	}
	s := fmt.Sprintf("%d (%s", total, strings.Join(names, ", "))
	if len(es) > 3 {
		s += ", …"
	}
	return s + ")"
}
