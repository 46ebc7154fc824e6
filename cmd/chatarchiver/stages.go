package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatarchiver/pkg/ui"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <chat-id>",
	Short: "Fetch message pages without harvesting or rendering",
	Long: `Walk the chat's message history and persist each page into the archive
directory. Page numbering continues after existing pages, so repeated runs
append new pages rather than overwrite old ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupArchiver()
		if err != nil {
			return err
		}

		written, err := a.Fetch(args[0])
		if err != nil {
			ui.PrintError("Fetch failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess(fmt.Sprintf("Fetched %d page(s)", written))
		return nil
	},
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download hosted images referenced by archived messages",
	Long: `Scan every archived message page for hosted image references and download
each distinct image into the archive directory. Failed downloads are recorded
in the harvest report and retried on the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupArchiver()
		if err != nil {
			return err
		}

		report, err := a.Harvest()
		if err != nil {
			ui.PrintError("Harvest failed", err.Error())
			os.Exit(1)
		}
		if len(report.Failed) > 0 {
			ui.PrintWarning("Some images could not be downloaded", len(report.Failed))
		}
		ui.PrintSuccess(fmt.Sprintf("Downloaded %d image(s), %d failed", report.Downloaded, len(report.Failed)))
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the HTML transcript from archived data",
	Long: `Merge every archived message page into a single chronological transcript.
Harvested images replace their hosted URLs and reactions render with icons
from the local emoticon catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupArchiver()
		if err != nil {
			return err
		}

		out, err := a.Render()
		if err != nil {
			ui.PrintError("Render failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Transcript written to " + out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(renderCmd)

	addArchiveFlags(fetchCmd)
	addArchiveFlags(harvestCmd)
	addArchiveFlags(renderCmd)
}
