package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatarchiver/pkg/archiver"
	"chatarchiver/pkg/auth"
	"chatarchiver/pkg/config"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/ui"
)

var (
	targetDir   string
	emoticonDir string
	rateLimit   int
	accountName string
	tokenFlag   string
)

var archiveCmd = &cobra.Command{
	Use:   "archive <chat-id>",
	Short: "Run the full pipeline: fetch, harvest, render",
	Long: `Fetch all message pages for a chat, download every hosted image the
messages reference, and render the HTML transcript.

A bearer token is required, supplied through one of:
  - A stored account (use 'chatarchiver auth login' to store one)
  - The CHATARCH_TOKEN environment variable
  - The --token flag`,
	Example: `  # Archive a chat with default settings
  chatarchiver archive 19:meeting@thread.v2

  # Archive into a specific directory with a stored account
  chatarchiver archive 19:meeting@thread.v2 --target-dir ./standup --account work

  # Lower the request rate
  chatarchiver archive 19:meeting@thread.v2 --rate-limit 30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupArchiver()
		if err != nil {
			return err
		}

		chatID := args[0]
		ui.PrintInfo("Archiving chat", chatID)
		ui.PrintHighlight("[FETCH -> HARVEST -> RENDER]")
		if err := a.Run(chatID); err != nil {
			logger.WithError(err).Error("Archive failed")
			ui.PrintError("Archive failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Archive complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	addArchiveFlags(archiveCmd)
}

func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&targetDir, "target-dir", "t", "", "archive directory (default ./archive)")
	cmd.Flags().StringVar(&emoticonDir, "emoticon-dir", "", "emoticon catalog directory")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "requests per minute")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	cmd.Flags().StringVar(&tokenFlag, "token", "", "bearer token (prefer stored accounts)")
}

// loadConfig builds the effective configuration from defaults, files,
// environment and flags
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if targetDir != "" {
		flags["target-dir"] = targetDir
	}
	if emoticonDir != "" {
		flags["emoticon-dir"] = emoticonDir
	}
	if rateLimit != 60 {
		flags["rate-limit"] = rateLimit
	}
	if tokenFlag != "" {
		flags["token"] = tokenFlag
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveToken fills in cfg.API.Token from stored credentials when neither
// flag nor environment provided one
func resolveToken(cfg *config.Config) error {
	if accountName == "" && cfg.API.Token != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			return fmt.Errorf("account not found: %s", accountName)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			return fmt.Errorf("no token found; run 'chatarchiver auth login' or set CHATARCH_TOKEN")
		}
	}

	cfg.API.Token = account.Token
	logger.WithField("account", account.Name).Info("Using stored credentials")
	return nil
}

// setupArchiver is the shared front half of every pipeline command
func setupArchiver() (*archiver.Archiver, error) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return nil, err
	}
	if err := resolveToken(cfg); err != nil {
		ui.PrintError("Authentication required", err.Error())
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Invalid configuration", err.Error())
		return nil, err
	}
	return archiver.New(cfg, logger.GetLogger())
}
