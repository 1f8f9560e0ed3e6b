package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igfollow/pkg/config"
	"igfollow/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igfollow configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGFOLLOW_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to ` + config.DefaultConfigPath() + `
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration from all sources.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Roster file presence
  - Ledger and log directories`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# igfollow configuration
#
# Every option can also be set with an IGFOLLOW_ environment variable,
# for example IGFOLLOW_ROSTER or IGFOLLOW_DAILY_CAP.

# Roster spreadsheet, one row per subject.
# Columns: name, bot username, bot password, target handles, tokens, max follow
roster:
  path: "schools.xlsx"
  # Worksheet to read; empty means the first one
  sheet: ""
  # Per-subject cap for rows that leave max follow empty
  default_max_follow: 50

# Progress ledger, one row per evaluated profile
ledger:
  path: "bot_progress.csv"
  # csv or sqlite (sqlite writes next to path with a .db extension)
  backend: "csv"

quota:
  # Follows across all subjects per day
  daily_cap: 300
  # Followers sampled per handle = max follow x oversample factor
  oversample_factor: 6
  # Hourly follow ceiling; 0 disables it
  follows_per_hour: 0
  # Count follows already in the ledger today against daily_cap
  count_ledger_today: true

# Random delays, picked uniformly between min and max
pacing:
  action: { min: "2s", max: "5s" }
  input: { min: "1s", max: "2s" }
  after_follow: { min: "1.5s", max: "2.5s" }
  candidate: { min: "3s", max: "6s" }
  subject: { min: "6s", max: "12s" }
  scroll_settle: "1.2s"
  scroll_jitter: "500ms"

auth:
  form_timeout: "40s"
  marker_timeout: "10s"
  verify_timeout: "20s"
  # Create this file (or run 'igfollow continue') after solving a security check
  sentinel_path: "continue.txt"
  challenge_wait: "10m"
  poll_interval: "2s"
  # Log out at the end of each subject
  logout: true
  # Where missing roster passwords are looked up: auto, keyring, file or env
  credential_store: "auto"

discovery:
  profile_timeout: "12s"
  modal_timeout: "15s"
  # Stop scrolling after this many scrolls without new followers
  no_growth_limit: 50

evaluation:
  profile_timeout: "8s"
  # Evaluate and log decisions without following or writing the ledger
  dry_run: false

browser:
  headless: false
  # Chrome binary; empty means auto-detect
  exec_path: ""
  lang: "en-US"
  window_width: 1280
  window_height: 900
  launch_retries: 3
  launch_timeout: "30s"
  navigation_timeout: "45s"
  action_timeout: "10s"

# Page locators can be overridden when the site changes, for example:
# selectors:
#   bio:
#     - { query: "header section h1", by: css }

logging:
  # debug, info, warn or error
  level: "info"
  file: "bot_debug.log"

ui:
  tui: false
  quiet: false
  no_color: false
  notifications: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Point roster.path at your spreadsheet")
	fmt.Println("2. Store bot passwords with 'igfollow auth set' or put them in the roster")
	fmt.Println("3. Run 'igfollow config validate' to check the configuration")
	fmt.Println("4. Start crawling with 'igfollow run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	warnings, problems := checkConfig(cfg)

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Roster: %s\n", cfg.Roster.Path)
	fmt.Printf("  Ledger: %s (%s)\n", cfg.Ledger.Path, cfg.Ledger.Backend)
	fmt.Printf("  Daily cap: %d\n", cfg.Quota.DailyCap)
	fmt.Printf("  Default max follow: %d\n", cfg.Roster.DefaultMaxFollow)
	fmt.Printf("  Sentinel: %s (wait %s)\n", cfg.Auth.SentinelPath, cfg.Auth.ChallengeWait)
	fmt.Printf("  Headless: %v\n", cfg.Browser.Headless)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkConfig runs the filesystem checks Validate leaves out
func checkConfig(cfg *config.Config) (warnings, problems []string) {
	if _, err := os.Stat(cfg.Roster.Path); err != nil {
		problems = append(problems, fmt.Sprintf("Roster not readable: %v", err))
	}

	for name, path := range map[string]string{"ledger": cfg.Ledger.Path, "log": cfg.Logging.File} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create %s directory: %v", name, err))
		}
	}

	if cfg.Browser.ExecPath != "" {
		if _, err := os.Stat(cfg.Browser.ExecPath); err != nil {
			problems = append(problems, fmt.Sprintf("Browser not found: %s", cfg.Browser.ExecPath))
		}
	}

	if cfg.Browser.Headless {
		warnings = append(warnings, "Headless mode: security checks cannot be solved by hand")
	}
	if cfg.Quota.FollowsPerHour == 0 {
		warnings = append(warnings, "No hourly follow ceiling set")
	}
	if _, err := os.Stat(cfg.Auth.SentinelPath); err == nil {
		warnings = append(warnings, "Sentinel file already present, it will be cleared at the next login")
	}
	return warnings, problems
}
