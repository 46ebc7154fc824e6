package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"chatarchiver/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "chatarchiver",
	Short: "Archive chat messages and images into a browsable HTML transcript",
	Long: `chatarchiver walks a chat's message history through the Microsoft Graph
API and turns it into a self-contained local archive.

The pipeline has three stages, each re-runnable on its own:
  fetch    download message pages into the archive directory
  harvest  download every hosted image the messages reference
  render   produce an HTML transcript from the archived data

Tokens are stored using the system keychain when available, with an
encrypted file and environment variables as fallbacks.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .chatarchiver.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`chatarchiver {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
