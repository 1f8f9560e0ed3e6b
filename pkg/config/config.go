package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"igfollow/pkg/instagram"
)

// AppName names the config and data directories
const AppName = "igfollow"

// Config holds all configuration options for the follow bot
type Config struct {
	// Roster of subjects to crawl
	Roster RosterConfig `yaml:"roster" json:"roster"`

	// Progress ledger
	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	// Follow budgets
	Quota QuotaConfig `yaml:"quota" json:"quota"`

	// Random delays between actions
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Login and manual intervention
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Follower list sampling
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	// Candidate profile evaluation
	Evaluation EvaluationConfig `yaml:"evaluation" json:"evaluation"`

	// Browser launch options
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Page locator overrides
	Selectors instagram.Selectors `yaml:"selectors" json:"selectors"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output and notifications
	UI UIConfig `yaml:"ui" json:"ui"`
}

// RosterConfig locates the roster spreadsheet
type RosterConfig struct {
	Path             string `yaml:"path" json:"path"`
	Sheet            string `yaml:"sheet" json:"sheet"`
	DefaultMaxFollow int    `yaml:"default_max_follow" json:"default_max_follow"`
}

// LedgerConfig holds progress ledger configuration
type LedgerConfig struct {
	Path    string `yaml:"path" json:"path"`
	Backend string `yaml:"backend" json:"backend"`
}

// QuotaConfig holds follow budgets
type QuotaConfig struct {
	DailyCap         int  `yaml:"daily_cap" json:"daily_cap"`
	OversampleFactor int  `yaml:"oversample_factor" json:"oversample_factor"`
	FollowsPerHour   int  `yaml:"follows_per_hour" json:"follows_per_hour"`
	CountLedgerToday bool `yaml:"count_ledger_today" json:"count_ledger_today"`
}

// Range is an inclusive random delay interval
type Range struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// PacingConfig holds the delay ranges used between actions
type PacingConfig struct {
	Action       Range         `yaml:"action" json:"action"`
	Input        Range         `yaml:"input" json:"input"`
	AfterFollow  Range         `yaml:"after_follow" json:"after_follow"`
	Candidate    Range         `yaml:"candidate" json:"candidate"`
	Subject      Range         `yaml:"subject" json:"subject"`
	ScrollSettle time.Duration `yaml:"scroll_settle" json:"scroll_settle"`
	ScrollJitter time.Duration `yaml:"scroll_jitter" json:"scroll_jitter"`
}

// AuthConfig holds login timeouts and the manual intervention sentinel
type AuthConfig struct {
	FormTimeout     time.Duration `yaml:"form_timeout" json:"form_timeout"`
	MarkerTimeout   time.Duration `yaml:"marker_timeout" json:"marker_timeout"`
	VerifyTimeout   time.Duration `yaml:"verify_timeout" json:"verify_timeout"`
	SentinelPath    string        `yaml:"sentinel_path" json:"sentinel_path"`
	ChallengeWait   time.Duration `yaml:"challenge_wait" json:"challenge_wait"`
	PollInterval    time.Duration `yaml:"poll_interval" json:"poll_interval"`
	Logout          bool          `yaml:"logout" json:"logout"`
	CredentialStore string        `yaml:"credential_store" json:"credential_store"`
}

// DiscoveryConfig holds follower sampling settings
type DiscoveryConfig struct {
	ProfileTimeout time.Duration `yaml:"profile_timeout" json:"profile_timeout"`
	ModalTimeout   time.Duration `yaml:"modal_timeout" json:"modal_timeout"`
	NoGrowthLimit  int           `yaml:"no_growth_limit" json:"no_growth_limit"`
}

// EvaluationConfig holds candidate evaluation settings
type EvaluationConfig struct {
	ProfileTimeout time.Duration `yaml:"profile_timeout" json:"profile_timeout"`
	DryRun         bool          `yaml:"dry_run" json:"dry_run"`
}

// BrowserConfig holds browser launch options
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Lang              string        `yaml:"lang" json:"lang"`
	WindowWidth       int           `yaml:"window_width" json:"window_width"`
	WindowHeight      int           `yaml:"window_height" json:"window_height"`
	LaunchRetries     int           `yaml:"launch_retries" json:"launch_retries"`
	LaunchTimeout     time.Duration `yaml:"launch_timeout" json:"launch_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ActionTimeout     time.Duration `yaml:"action_timeout" json:"action_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal and notification preferences
type UIConfig struct {
	TUI           bool `yaml:"tui" json:"tui"`
	Quiet         bool `yaml:"quiet" json:"quiet"`
	NoColor       bool `yaml:"no_color" json:"no_color"`
	Notifications bool `yaml:"notifications" json:"notifications"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Roster: RosterConfig{
			Path:             "schools.xlsx",
			DefaultMaxFollow: 50,
		},
		Ledger: LedgerConfig{
			Path:    "bot_progress.csv",
			Backend: "csv",
		},
		Quota: QuotaConfig{
			DailyCap:         300,
			OversampleFactor: 6,
			FollowsPerHour:   0,
			CountLedgerToday: true,
		},
		Pacing: PacingConfig{
			Action:       Range{Min: 2 * time.Second, Max: 5 * time.Second},
			Input:        Range{Min: 1 * time.Second, Max: 2 * time.Second},
			AfterFollow:  Range{Min: 1500 * time.Millisecond, Max: 2500 * time.Millisecond},
			Candidate:    Range{Min: 3 * time.Second, Max: 6 * time.Second},
			Subject:      Range{Min: 6 * time.Second, Max: 12 * time.Second},
			ScrollSettle: 1200 * time.Millisecond,
			ScrollJitter: 500 * time.Millisecond,
		},
		Auth: AuthConfig{
			FormTimeout:     40 * time.Second,
			MarkerTimeout:   10 * time.Second,
			VerifyTimeout:   20 * time.Second,
			SentinelPath:    "continue.txt",
			ChallengeWait:   600 * time.Second,
			PollInterval:    2 * time.Second,
			Logout:          true,
			CredentialStore: "auto",
		},
		Discovery: DiscoveryConfig{
			ProfileTimeout: 12 * time.Second,
			ModalTimeout:   15 * time.Second,
			NoGrowthLimit:  50,
		},
		Evaluation: EvaluationConfig{
			ProfileTimeout: 8 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:          false,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Lang:              "en-US",
			WindowWidth:       1280,
			WindowHeight:      900,
			LaunchRetries:     3,
			LaunchTimeout:     30 * time.Second,
			NavigationTimeout: 45 * time.Second,
			ActionTimeout:     10 * time.Second,
		},
		Selectors: instagram.DefaultSelectors(),
		Logging: LoggingConfig{
			Level: "info",
			File:  "bot_debug.log",
		},
		UI: UIConfig{
			Notifications: true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("IGFOLLOW_ROSTER"); v != "" {
		c.Roster.Path = v
	}
	if v := os.Getenv("IGFOLLOW_LEDGER"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("IGFOLLOW_LEDGER_BACKEND"); v != "" {
		c.Ledger.Backend = v
	}
	if v := os.Getenv("IGFOLLOW_DAILY_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOW_DAILY_CAP: %w", err))
		} else {
			c.Quota.DailyCap = n
		}
	}
	if v := os.Getenv("IGFOLLOW_FOLLOWS_PER_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOW_FOLLOWS_PER_HOUR: %w", err))
		} else {
			c.Quota.FollowsPerHour = n
		}
	}
	if v := os.Getenv("IGFOLLOW_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGFOLLOW_CHROME_PATH"); v != "" {
		c.Browser.ExecPath = v
	}
	if v := os.Getenv("IGFOLLOW_SENTINEL"); v != "" {
		c.Auth.SentinelPath = v
	}
	if v := os.Getenv("IGFOLLOW_NOTIFICATIONS_ENABLED"); v != "" {
		c.UI.Notifications = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGFOLLOW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("IGFOLLOW_LOG_FILE"); ok {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	c.Selectors = c.Selectors.Merge(instagram.DefaultSelectors())

	return nil
}

// DefaultConfigPath is where `config init` writes
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DataDir holds the encrypted credential file and other app state
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igfollow.yaml",
		".igfollow.yml",
		DefaultConfigPath(),
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Roster.Path == "" {
		errs = append(errs, errors.New("roster path is required"))
	}
	if c.Roster.DefaultMaxFollow <= 0 {
		errs = append(errs, errors.New("default max follow must be positive"))
	}

	if c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger path is required"))
	}
	switch c.Ledger.Backend {
	case "csv", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("invalid ledger backend %q", c.Ledger.Backend))
	}

	if c.Quota.DailyCap <= 0 {
		errs = append(errs, errors.New("daily cap must be positive"))
	}
	if c.Quota.OversampleFactor <= 0 {
		errs = append(errs, errors.New("oversample factor must be positive"))
	}
	if c.Quota.FollowsPerHour < 0 {
		errs = append(errs, errors.New("follows per hour cannot be negative"))
	}

	ranges := map[string]Range{
		"action":       c.Pacing.Action,
		"input":        c.Pacing.Input,
		"after_follow": c.Pacing.AfterFollow,
		"candidate":    c.Pacing.Candidate,
		"subject":      c.Pacing.Subject,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			errs = append(errs, fmt.Errorf("pacing %s range is invalid", name))
		}
	}

	if c.Auth.SentinelPath == "" {
		errs = append(errs, errors.New("sentinel path is required"))
	}
	if c.Auth.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Auth.ChallengeWait <= 0 {
		errs = append(errs, errors.New("challenge wait must be positive"))
	}
	switch c.Auth.CredentialStore {
	case "auto", "keyring", "file", "env":
	default:
		errs = append(errs, fmt.Errorf("invalid credential store %q", c.Auth.CredentialStore))
	}

	if c.Discovery.NoGrowthLimit <= 0 {
		errs = append(errs, errors.New("no growth limit must be positive"))
	}
	if c.Discovery.ProfileTimeout <= 0 || c.Discovery.ModalTimeout <= 0 || c.Evaluation.ProfileTimeout <= 0 {
		errs = append(errs, errors.New("page timeouts must be positive"))
	}

	if c.Browser.LaunchRetries < 0 {
		errs = append(errs, errors.New("launch retries cannot be negative"))
	}
	if c.Browser.LaunchTimeout <= 0 || c.Browser.NavigationTimeout <= 0 || c.Browser.ActionTimeout <= 0 {
		errs = append(errs, errors.New("browser timeouts must be positive"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["roster"].(string); ok && v != "" {
		c.Roster.Path = v
	}
	if v, ok := flags["ledger"].(string); ok && v != "" {
		c.Ledger.Path = v
	}
	if v, ok := flags["daily-cap"].(int); ok && v > 0 {
		c.Quota.DailyCap = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["tui"].(bool); ok {
		c.UI.TUI = v
	}
	if v, ok := flags["quiet"].(bool); ok {
		c.UI.Quiet = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.UI.NoColor = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["dry-run"].(bool); ok && v {
		c.Evaluation.DryRun = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, AppName, ".env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
