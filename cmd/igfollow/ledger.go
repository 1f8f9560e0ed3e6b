package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"igfollow/pkg/config"
	"igfollow/pkg/ledger"
	"igfollow/pkg/ui"
)

// ledgerCmd represents the ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the progress ledger",
}

// ledgerStatsCmd summarizes the ledger per subject
var ledgerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show decisions per subject",
	Args:  cobra.NoArgs,
	RunE:  runLedgerStats,
}

// ledgerCheckCmd looks up one profile
var ledgerCheckCmd = &cobra.Command{
	Use:   "check <profile-url>",
	Short: "Show the decision recorded for a profile",
	Example: `  igfollow ledger check https://www.instagram.com/someone/
  igfollow ledger check /someone/`,
	Args: cobra.ExactArgs(1),
	RunE: runLedgerCheck,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerStatsCmd)
	ledgerCmd.AddCommand(ledgerCheckCmd)

	ledgerCmd.PersistentFlags().StringVarP(&ledgerPath, "ledger", "l", "", "progress ledger file")
}

func openLedger(cmd *cobra.Command) (*config.Config, *ledger.Ledger, error) {
	cfg, err := loadConfig(cmd, map[string]interface{}{"ledger": ledgerPath})
	if err != nil {
		return nil, nil, err
	}
	l, err := ledger.Open(cfg.Ledger, "")
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func runLedgerStats(cmd *cobra.Command, args []string) error {
	cfg, l, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	stats := l.Stats()
	if len(stats) == 0 {
		ui.PrintWarning("Ledger is empty: " + l.Path())
		return nil
	}

	fmt.Printf("%s %s\n\n", ui.Cyan("Ledger:"), l.Path())
	fmt.Printf("%-24s %9s %8s %9s %10s %8s  %s\n", "SUBJECT", "EVALUATED", "MATCHED", "FOLLOWED", "LOAD FAIL", "MATCH %", "LAST ACTIVITY")
	for _, s := range stats {
		printStatsRow(s.Subject, s)
	}
	fmt.Println()
	printStatsRow(ui.Green("TOTAL"), ledger.Totals(stats))

	today := l.FollowedSince(ledger.StartOfDay(time.Now()))
	fmt.Printf("\n%s %d/%d\n", ui.Cyan("Followed today:"), today, cfg.Quota.DailyCap)

	if cfg.Ledger.Backend == "sqlite" {
		return printRuns(ledger.SQLitePath(cfg.Ledger.Path))
	}
	return nil
}

func printStatsRow(name string, s ledger.SubjectStats) {
	last := "-"
	if !s.LastActivity.IsZero() {
		last = s.LastActivity.Format("2006-01-02 15:04")
	}
	fmt.Printf("%-24s %9d %8d %9d %10d %7.1f%%  %s\n",
		truncate(name, 24), s.Evaluated, s.Matched, s.Followed, s.ProfileLoadFail, s.MatchRate()*100, last)
}

func printRuns(path string) error {
	store, err := ledger.OpenSQLiteStore(path, "")
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(runs))
	for id := range runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("\n%s %d\n", ui.Cyan("Runs:"), len(ids))
	for _, id := range ids {
		name := id
		if name == "" {
			name = "(imported)"
		}
		fmt.Printf("  %s %-36s %d entries\n", ui.Dim("•"), name, runs[id])
	}
	return nil
}

func runLedgerCheck(cmd *cobra.Command, args []string) error {
	_, l, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	e, ok := l.Lookup(args[0])
	if !ok {
		ui.PrintWarning("Not processed yet: " + args[0])
		return nil
	}

	fmt.Printf("%s %s\n", ui.Cyan("Profile:"), e.Ref)
	fmt.Printf("%s %s\n", ui.Cyan("Subject:"), e.Subject)
	fmt.Printf("%s %s\n", ui.Cyan("Tokens:"), e.Tokens)
	fmt.Printf("%s %s\n", ui.Cyan("Decision:"), e.Decision.String())
	fmt.Printf("%s %s\n", ui.Cyan("When:"), e.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
