package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/instagram"
	"igfollow/pkg/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "schools.xlsx", cfg.Roster.Path)
	assert.Equal(t, 50, cfg.Roster.DefaultMaxFollow)
	assert.Equal(t, "bot_progress.csv", cfg.Ledger.Path)
	assert.Equal(t, "csv", cfg.Ledger.Backend)

	assert.Equal(t, 300, cfg.Quota.DailyCap)
	assert.Equal(t, 6, cfg.Quota.OversampleFactor)
	assert.True(t, cfg.Quota.CountLedgerToday)

	assert.Equal(t, Range{Min: 3 * time.Second, Max: 6 * time.Second}, cfg.Pacing.Candidate)
	assert.Equal(t, Range{Min: 6 * time.Second, Max: 12 * time.Second}, cfg.Pacing.Subject)
	assert.Equal(t, 1200*time.Millisecond, cfg.Pacing.ScrollSettle)

	assert.Equal(t, "continue.txt", cfg.Auth.SentinelPath)
	assert.Equal(t, 600*time.Second, cfg.Auth.ChallengeWait)
	assert.Equal(t, 2*time.Second, cfg.Auth.PollInterval)

	assert.Equal(t, 50, cfg.Discovery.NoGrowthLimit)
	assert.Equal(t, "bot_debug.log", cfg.Logging.File)
	assert.Equal(t, instagram.DefaultSelectors(), cfg.Selectors)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGFOLLOW_ROSTER", "/tmp/roster.csv")
	t.Setenv("IGFOLLOW_LEDGER", "/tmp/ledger.csv")
	t.Setenv("IGFOLLOW_DAILY_CAP", "120")
	t.Setenv("IGFOLLOW_HEADLESS", "true")
	t.Setenv("IGFOLLOW_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("IGFOLLOW_LOG_LEVEL", "debug")
	t.Setenv("IGFOLLOW_LOG_FILE", "")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/roster.csv", cfg.Roster.Path)
	assert.Equal(t, "/tmp/ledger.csv", cfg.Ledger.Path)
	assert.Equal(t, 120, cfg.Quota.DailyCap)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.UI.Notifications)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("IGFOLLOW_DAILY_CAP", "many")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGFOLLOW_DAILY_CAP")
	assert.Equal(t, 300, cfg.Quota.DailyCap)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero daily cap", func(c *Config) { c.Quota.DailyCap = 0 }, "daily cap must be positive"},
		{"bad backend", func(c *Config) { c.Ledger.Backend = "redis" }, "invalid ledger backend"},
		{"inverted range", func(c *Config) { c.Pacing.Candidate = Range{Min: 5 * time.Second, Max: time.Second} }, "pacing candidate range is invalid"},
		{"no sentinel", func(c *Config) { c.Auth.SentinelPath = "" }, "sentinel path is required"},
		{"bad store", func(c *Config) { c.Auth.CredentialStore = "vault" }, "invalid credential store"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"no growth limit", func(c *Config) { c.Discovery.NoGrowthLimit = 0 }, "no growth limit must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quota.DailyCap = -1
	cfg.Roster.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily cap must be positive")
	assert.Contains(t, err.Error(), "roster path is required")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"roster":    "flag.xlsx",
		"ledger":    "flag.csv",
		"daily-cap": 25,
		"headless":  true,
		"tui":       true,
		"log-level": "error",
		"dry-run":   true,
	})

	assert.Equal(t, "flag.xlsx", cfg.Roster.Path)
	assert.Equal(t, "flag.csv", cfg.Ledger.Path)
	assert.Equal(t, 25, cfg.Quota.DailyCap)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.UI.TUI)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.True(t, cfg.Evaluation.DryRun)
}

func TestMergeCommandLineFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"roster":    "",
		"daily-cap": 0,
	})

	assert.Equal(t, "schools.xlsx", cfg.Roster.Path)
	assert.Equal(t, 300, cfg.Quota.DailyCap)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Quota.DailyCap = 42
	cfg.Pacing.Candidate = Range{Min: time.Second, Max: 2 * time.Second}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 42, loaded.Quota.DailyCap)
	assert.Equal(t, cfg.Pacing.Candidate, loaded.Pacing.Candidate)
	assert.Equal(t, cfg.Selectors, loaded.Selectors)
}

func TestLoadFromFilePartialSelectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
quota:
  daily_cap: 10
pacing:
  candidate:
    min: 1s
    max: 2s
selectors:
  follow_button: "//button[.='Follow']"
`), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 10, cfg.Quota.DailyCap)
	assert.Equal(t, Range{Min: time.Second, Max: 2 * time.Second}, cfg.Pacing.Candidate)
	assert.Equal(t, session.XPath(`//button[.='Follow']`), cfg.Selectors.FollowButton)
	assert.Equal(t, instagram.DefaultSelectors().Bio, cfg.Selectors.Bio)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quota: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quota:\n  daily_cap: 10\n"), 0600))
	t.Setenv("IGFOLLOW_DAILY_CAP", "20")

	cfg, err := Load(path, map[string]interface{}{"daily-cap": 30})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Quota.DailyCap)

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Quota.DailyCap)
}

func TestLoadValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  backend: redis\n"), 0600))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
