package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"igfollow/pkg/config"
	"igfollow/pkg/crawler"
	"igfollow/pkg/credentials"
	"igfollow/pkg/errors"
	"igfollow/pkg/ledger"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
	"igfollow/pkg/roster"
	"igfollow/pkg/session/chrome"
	"igfollow/pkg/ui"
	"igfollow/pkg/ui/tui"
)

var (
	rosterPath string
	ledgerPath string
	dailyCap   int
	headless   bool
	useTUI     bool
	dryRun     bool
	only       []string
)

// runCmd represents the crawl command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl followers and follow matching accounts",
	Long: `Crawl the followers of every target handle in the roster and follow the
accounts whose bio mentions one of the subject's tokens.

Each subject gets its own browser session and logs in with its own bot
account. Progress is written to the ledger after every profile, so an
interrupted run picks up where it left off.

If Instagram asks for a security check the run pauses. Solve it in the
browser window, then run "igfollow continue" (or create the sentinel file).`,
	Example: `  # Crawl the default roster
  igfollow run

  # Use a specific roster and a smaller daily cap
  igfollow run --roster schools.xlsx --daily-cap 100

  # Only two subjects, full-screen dashboard
  igfollow run --subject "Lincoln High" --subject "Central" --tui

  # Decide without clicking follow
  igfollow run --dry-run -v`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "roster spreadsheet (.xlsx or .csv)")
	runCmd.Flags().StringVarP(&ledgerPath, "ledger", "l", "", "progress ledger file")
	runCmd.Flags().IntVarP(&dailyCap, "daily-cap", "d", 0, "maximum follows across all subjects today")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "full-screen dashboard")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate and log decisions without following or recording")
	runCmd.Flags().StringSliceVarP(&only, "subject", "s", nil, "only crawl these subjects (repeatable)")
}

// runFlags collects the run flags that override configuration
func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"roster":    rosterPath,
		"ledger":    ledgerPath,
		"daily-cap": dailyCap,
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if cmd.Flags().Changed("tui") {
		flags["tui"] = useTUI
	}
	if dryRun {
		flags["dry-run"] = true
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, runFlags(cmd))
	if err != nil {
		return err
	}

	if !cfg.UI.TUI {
		ui.PrintLogo()
	}

	runID := uuid.NewString()
	if err := setupLogger(cfg, runID, os.Stderr); err != nil {
		return err
	}
	log := logger.GetLogger()

	r, err := loadRoster(cfg)
	if err != nil {
		return err
	}
	if len(r.Subjects) == 0 {
		ui.PrintWarning("No subjects to crawl in " + r.Path)
		return nil
	}

	l, err := ledger.Open(cfg.Ledger, runID)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.WithError(err).Error("Failed to close ledger")
		}
	}()

	quota := &models.Quota{DailyCap: cfg.Quota.DailyCap}
	if cfg.Quota.CountLedgerToday {
		if n := crawler.SeedQuota(quota, l, time.Now()); n > 0 {
			ui.PrintInfo("Already followed today", strconv.Itoa(n))
		}
	}

	ui.PrintInfo("Roster", r.Path)
	ui.PrintInfo("Ledger", l.Path())
	ui.PrintInfo("Subjects", strconv.Itoa(len(r.Subjects)))
	ui.PrintInfo("Daily cap", strconv.Itoa(quota.TotalFollowed)+"/"+strconv.Itoa(quota.DailyCap))
	if cfg.Evaluation.DryRun {
		ui.PrintHighlight("Dry run: nothing will be followed")
	}

	log.InfoWithFields("Starting run", map[string]interface{}{
		"subjects":  len(r.Subjects),
		"skipped":   len(r.Skipped),
		"daily_cap": quota.DailyCap,
		"seeded":    quota.TotalFollowed,
		"dry_run":   cfg.Evaluation.DryRun,
		"ledger":    l.Path(),
	})

	c := crawler.New(cfg, chrome.NewFactory(cfg.Browser), l)
	notifier := ui.NewNotifier(cfg.UI.Notifications)
	c.Auth().SetNotifier(notifier)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var summary *crawler.Summary
	if cfg.UI.TUI {
		summary, err = crawlWithTUI(ctx, cancel, c, notifier, r.Subjects, quota)
	} else {
		display := ui.NewProgressDisplay(os.Stdout, *quota, verbose)
		display.SetChallengeGuide(cfg.Auth.SentinelPath, cfg.Auth.ChallengeWait)
		c.SetReporter(ui.Tee(display, notifier.NotifyOn()))

		summary, err = c.Run(ctx, r.Subjects, quota)
		if summary != nil {
			display.Complete(summary)
		}
	}

	if summary != nil {
		log.InfoWithFields("Run finished", map[string]interface{}{
			"outcome":  string(summary.Outcome),
			"followed": summary.Followed,
			"subjects": len(summary.Subjects),
		})
		if summary.Outcome == crawler.OutcomeCanceled {
			ui.PrintWarning("Interrupted, progress saved to " + l.Path())
		}
	}
	return err
}

// crawlWithTUI runs the crawl behind the dashboard. Quitting the dashboard
// cancels the crawl, which stops at the next candidate.
func crawlWithTUI(ctx context.Context, cancel context.CancelFunc, c *crawler.Crawler, notifier *ui.Notifier, subjects []models.Subject, quota *models.Quota) (*crawler.Summary, error) {
	prev := ui.Output()
	ui.SetOutput(io.Discard)
	defer ui.SetOutput(prev)

	terminal := tui.NewTUI(*quota)
	c.SetReporter(ui.Tee(terminal, notifier.NotifyOn()))

	type result struct {
		summary *crawler.Summary
		err     error
	}
	done := make(chan result, 1)

	go func() {
		summary, err := c.Run(ctx, subjects, quota)
		if summary != nil {
			terminal.Done(summary)
		}
		if err != nil {
			terminal.LogError("Run aborted: %v", err)
		}
		// Leave the final state on screen briefly
		time.Sleep(2 * time.Second)
		terminal.Stop()
		done <- result{summary, err}
	}()

	if err := terminal.Start(); err != nil {
		logger.WithError(err).Error("Dashboard failed")
	}
	cancel()
	res := <-done
	return res.summary, res.err
}

// setupLogger installs the run's logger, writing to the log file and to
// stderr as chosen by logConsole
func setupLogger(cfg *config.Config, runID string, stderr io.Writer) error {
	l, err := logger.NewWithConsole(&cfg.Logging, logConsole(cfg, stderr))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "setup logger", err)
	}
	logger.SetLogger(l.WithField("run_id", runID))
	return nil
}

// logConsole picks the console log stream. Log lines go to stderr next to
// the log file unless the dashboard owns the terminal or output is quiet.
func logConsole(cfg *config.Config, stderr io.Writer) io.Writer {
	if cfg.UI.TUI || cfg.UI.Quiet {
		return nil
	}
	return stderr
}

// loadRoster reads the roster, filling missing passwords from the
// credential store when one is available
func loadRoster(cfg *config.Config) (*roster.Roster, error) {
	opts := roster.Options{
		Sheet:            cfg.Roster.Sheet,
		DefaultMaxFollow: cfg.Roster.DefaultMaxFollow,
		Only:             only,
	}

	manager, err := credentials.NewManager(cfg.Auth.CredentialStore, config.DataDir())
	if err != nil {
		logger.WithError(err).Warn("Credential store unavailable, using roster passwords only")
	} else {
		opts.Credentials = manager
	}

	r, err := roster.Load(cfg.Roster.Path, opts)
	if err != nil {
		return nil, err
	}
	for _, skipped := range r.Skipped {
		ui.PrintWarning("Skipping roster " + skipped.Error())
	}
	return r, nil
}
