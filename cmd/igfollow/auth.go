package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igfollow/pkg/config"
	"igfollow/pkg/credentials"
	"igfollow/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage bot account passwords",
	Long: `Manage bot account passwords outside the roster spreadsheet.

A roster row may leave the password column empty; the password is then
looked up here by the row's bot username.

Passwords are looked up in order from:
  - The system keyring (when available)
  - An encrypted vault in the data directory, one sealed record per bot.
    Its key comes from IGFOLLOW_CREDENTIALS_PASSPHRASE or a generated key file.
  - Environment variables IG_USERNAME and IG_PASSWORD (one account, read-only)`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set [username]",
	Short: "Store a bot account password",
	Example: `  # Prompt for username and password
  igfollow auth set

  # Prompt for the password only
  igfollow auth set lincoln_bot`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSet,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove a stored password",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRemove,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authListCmd)
}

func credentialManager(cmd *cobra.Command) (*credentials.Manager, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	manager, err := credentials.NewManager(cfg.Auth.CredentialStore, config.DataDir())
	if err != nil {
		return nil, fmt.Errorf("initialize credential store: %w", err)
	}
	return manager, nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	manager, err := credentialManager(cmd)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Bot username: ")
		username, err = reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Printf("Password for %s: ", username)
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	where, err := manager.Save(username, password)
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	ui.PrintSuccess("Stored password for " + username + " in the " + where)
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	manager, err := credentialManager(cmd)
	if err != nil {
		return err
	}

	username := strings.TrimPrefix(args[0], "@")
	if err := manager.Remove(username); err != nil {
		return fmt.Errorf("remove %s: %w", username, err)
	}

	ui.PrintSuccess("Removed password for " + username)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := credentialManager(cmd)
	if err != nil {
		return err
	}

	accounts := manager.List()
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Use 'igfollow auth set' to add one.")
		return nil
	}

	fmt.Println(ui.Cyan("Stored accounts:"))
	for _, account := range accounts {
		updated := "unknown"
		if !account.Updated.IsZero() {
			updated = account.Updated.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s %s %s\n", ui.Green("•"), account.Username,
			ui.Dim("(password "+credentials.Mask(account.Password)+", updated "+updated+")"))
	}
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
