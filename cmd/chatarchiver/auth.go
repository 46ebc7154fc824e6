package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatarchiver/pkg/auth"
	"chatarchiver/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Graph API tokens",
	Long: `Manage stored Graph API bearer tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (CHATARCH_TOKEN, read-only)

Never share your tokens or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a bearer token securely",
	Long: `Store a Graph API bearer token under an account name. The token is read
from the terminal without echo.

To get a token, sign in to the Graph Explorer or your organization's portal
and copy the access token for the chat read scope.`,
	Example: `  # Interactive login under the default name
  chatarchiver auth login

  # Store a token under a specific name
  chatarchiver auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with masked tokens",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Account name [default]: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			name = trimmed
		}
	}

	token, err := auth.PromptToken("Bearer token: ")
	if err != nil {
		ui.PrintError("Failed to read token", err.Error())
		os.Exit(1)
	}
	if token == "" {
		ui.PrintError("Token must not be empty")
		os.Exit(1)
	}

	if err := manager.Store(&auth.Account{Name: name, Token: token}); err != nil {
		ui.PrintError("Failed to store token", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Token stored for account " + name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove token", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Removed account " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("Stored accounts", "none")
		return nil
	}

	for _, account := range accounts {
		masked := auth.Sanitize(account)
		fmt.Printf("  %-16s %s  %s\n",
			masked.Name, masked.Token,
			ui.Dim("modified "+masked.LastModified.Format("2006-01-02 15:04")))
	}
	return nil
}
