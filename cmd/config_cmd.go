// Package cmd implements the huntlog CLI commands.
package cmd

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days: %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Database:     %s\n", maskDSN(dbPath()))
	if cfg.General.ImportDir != "" {
		fmt.Printf("    Import dir:   %s\n", cfg.General.ImportDir)
	}
	if cfg.General.Timezone != "" {
		fmt.Printf("    Time zone:    %s\n", cfg.General.Timezone)
	}
	fmt.Println()

	fmt.Println("  [Parser]")
	fmt.Printf("    Max input:   %s bytes\n", cli.FormatNumber(cfg.Parser.MaxInputBytes))
	if cfg.Parser.LabelsFile != "" {
		fmt.Printf("    Labels file: %s\n", cfg.Parser.LabelsFile)
	} else {
		fmt.Println("    Labels file: built-in")
	}
	fmt.Println()

	fmt.Println("  [Goals]")
	if cfg.Goals.MonthlyBalance != nil {
		fmt.Printf("    Monthly balance: %s\n", cli.FormatGold(*cfg.Goals.MonthlyBalance))
	} else {
		fmt.Println("    Monthly balance: not set")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	if len(cfg.Items.Values) > 0 {
		fmt.Println("  [Items]")
		names := make([]string, 0, len(cfg.Items.Values))
		for name := range cfg.Items.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("    %-24s %s\n", name, cli.FormatNumber(cfg.Items.Values[name]))
		}
		fmt.Println()
	}

	fmt.Println("  Run `huntlog setup` to reconfigure.")
	return nil
}

// maskDSN hides the password of a database URL.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
