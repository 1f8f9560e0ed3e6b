package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/logger"
	"igfollow/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igfollow",
	Short: "Follow Instagram accounts whose bio matches a subject's tokens",
	Long: `igfollow crawls the followers of target accounts on behalf of each subject in
a roster spreadsheet, opens every follower's profile and follows the ones whose
bio mentions one of the subject's tokens.

Features:
  - One browser session per subject, logged in with the subject's bot account
  - Manual recovery for login challenges through a sentinel file
  - Resumable progress ledger (CSV or SQLite), never evaluates a profile twice
  - Per-subject and daily follow caps with randomized pacing
  - Progress line or full-screen dashboard, desktop notifications`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		ui.SetNoColor(noColor)
		ui.SetQuietMode(quiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		if errors.IsFatal(err) {
			logger.WithError(err).Error("Run aborted")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every decision")

	rootCmd.SetVersionTemplate(`igfollow {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the persistent flags that override configuration
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("quiet") {
		flags["quiet"] = quiet
	}
	if cmd.Flags().Changed("no-color") {
		flags["no-color"] = noColor
	}
	return flags
}

// loadConfig loads configuration with the global flags applied
func loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	flags := globalFlags(cmd)
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConfig, "load configuration", err)
	}

	ui.SetQuietMode(cfg.UI.Quiet)
	ui.SetNoColor(cfg.UI.NoColor)
	return cfg, nil
}
