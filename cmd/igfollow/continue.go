package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igfollow/pkg/auth"
	"igfollow/pkg/ui"
)

// continueCmd raises the sentinel a paused login is waiting for
var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Resume a login paused on a security check",
	Long: `Tell a running crawl that the security check in its browser window has
been solved. This creates the sentinel file from the configuration; the crawl
removes it once the login is verified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}

		signal := auth.NewFileSignal(cfg.Auth.SentinelPath)
		if signal.Present() {
			ui.PrintWarning("Sentinel already present: " + signal.String())
			return nil
		}
		if err := signal.Raise(); err != nil {
			return fmt.Errorf("create %s: %w", signal, err)
		}

		ui.PrintSuccess("Created " + signal.String() + ", the crawl will verify the login shortly")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(continueCmd)
}
