package main

import (
	"os"

	"github.com/spf13/cobra"

	"chatarchiver/pkg/ui"
)

var emoticonsCmd = &cobra.Command{
	Use:   "emoticons",
	Short: "Manage the local emoticon catalog",
}

var emoticonsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the emoticon catalog and icon assets",
	Long: `Download the emoticon catalog and every icon it lists into the emoticon
directory. Icons already present are skipped, so refreshing after a catalog
update only downloads new assets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupArchiver()
		if err != nil {
			return err
		}

		if err := a.FetchEmoticons(); err != nil {
			ui.PrintError("Emoticon fetch failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Emoticon catalog up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emoticonsCmd)
	emoticonsCmd.AddCommand(emoticonsFetchCmd)
	addArchiveFlags(emoticonsFetchCmd)
}
