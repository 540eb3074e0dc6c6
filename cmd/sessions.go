package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session list with details",
	RunE:  runSessions,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session with its kills and loot",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an imported session",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	sessionsLimit  int
	deleteReimport bool
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	deleteCmd.Flags().BoolVar(&deleteReimport, "reimport", false, "Forget the source file so the next sync imports it again")
	rootCmd.AddCommand(sessionsCmd, showCmd, deleteCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	all, err := loadData()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	filtered, since, until := applyFilters(all)
	sessions := pipeline.FilterByTime(filtered, since, until)

	if len(sessions) == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		return nil
	}

	// Sort by start time descending
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	sessions = pipeline.Top(sessions, sessionsLimit)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  Last %dd (showing %d)", flagDays, len(sessions))))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		xph, _ := pipeline.XPPerHour(s)
		rows = append(rows, []string{
			s.ID[:8],
			humanize.Time(s.StartTime),
			truncate(s.Character, 14),
			cli.FormatMinutes(s.DurationMinutes),
			cli.FormatCompact(s.TotalXPGain),
			cli.FormatCompact(xph),
			cli.FormatGold(s.Balance),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Started", "Character", "Duration", "XP", "XP/h", "Balance"},
		Rows:    rows,
	}))

	return nil
}

func runShow(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	s, err := st.GetSession(args[0])
	if err != nil {
		return sessionLookupError(args[0], err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSION  %s", s.StartTime.Local().Format("Jan 02 2006 15:04"))))
	fmt.Println()

	xph, _ := pipeline.XPPerHour(s)
	rows := [][]string{
		{"ID", s.ID},
		{"Character", s.Character},
		{"Layout", s.Strategy},
		{"Start", s.StartTime.Local().Format("2006-01-02 15:04:05")},
		{"End", s.EndTime.Local().Format("2006-01-02 15:04:05")},
		{"Duration", cli.FormatMinutes(s.DurationMinutes)},
		{"---"},
		{"Raw XP", cli.FormatNumber(s.RawXPGain)},
		{"XP", cli.FormatNumber(s.TotalXPGain)},
		{"XP/h", cli.FormatNumber(xph)},
		{"---"},
		{"Loot", cli.FormatNumber(s.LootValue)},
		{"Supplies", cli.FormatNumber(s.SuppliesValue)},
		{"Balance", cli.FormatNumber(s.Balance)},
		{"Damage", cli.FormatNumber(s.DamageDealt)},
		{"Healing", cli.FormatNumber(s.HealingDone)},
		{"---"},
		{"Imported", humanize.Time(s.ImportedAt)},
	}
	if s.SourcePath != "" {
		rows = append(rows, []string{"Source", s.SourcePath})
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Field", "Value"}, Rows: rows}))

	if len(s.KilledMonsters) > 0 {
		kills := make([][]string, 0, len(s.KilledMonsters))
		for _, m := range s.KilledMonsters {
			kills = append(kills, []string{m.Name, cli.FormatNumber(int64(m.Count))})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Killed monsters (%d)", s.MonstersKilled()),
			Headers: []string{"Monster", "Kills"},
			Rows:    kills,
		}))
	}

	if len(s.LootedItems) > 0 {
		loot := make([][]string, 0, len(s.LootedItems))
		for _, it := range s.LootedItems {
			value := "?"
			if it.Value != nil {
				value = cli.FormatGold(*it.Value)
			}
			loot = append(loot, []string{it.Name, cli.FormatNumber(int64(it.Count)), value})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Looted items (%s known value)", cli.FormatGold(s.ItemsValue())),
			Headers: []string{"Item", "Count", "Value"},
			Rows:    loot,
		}))
	}

	return nil
}

func runDelete(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	s, err := st.GetSession(args[0])
	if err != nil {
		return sessionLookupError(args[0], err)
	}
	if err := st.DeleteSession(s.ID); err != nil {
		return err
	}
	// The source file stays tracked unless asked, so sync does not bring it back.
	if deleteReimport && s.SourcePath != "" {
		if err := st.DeleteFileTracker(s.SourcePath); err != nil {
			return err
		}
	}

	fmt.Printf("  Deleted session %s (%s)\n", s.ID, s.StartTime.Local().Format("Jan 02 15:04"))
	return nil
}

func sessionLookupError(id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("no session matches %q", id)
	case errors.Is(err, store.ErrAmbiguous):
		return fmt.Errorf("%q matches several sessions; use more of the id", id)
	default:
		return err
	}
}
