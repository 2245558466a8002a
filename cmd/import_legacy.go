package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/cursor-archive/internal"
	"github.com/spf13/cobra"
)

// importLegacyCmd represents the import-legacy command
var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy <path>",
	Short: "Import old chat_data JSON exports",
	Long: `Import chat history from the old chat_data_<hash>.json export format.

The path may be a single export file or a directory containing several.
Re-importing the same file updates the archived copies instead of
duplicating them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		importer := internal.NewLegacyImporter(store)

		info, err := os.Stat(args[0])
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], err)
		}

		var stats internal.IngestStats
		if info.IsDir() {
			stats, err = importer.ImportDirectory(args[0])
		} else {
			stats, err = importer.ImportFile(args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s imported (%d new, %d updated), %d errors\n",
			statStyle.Render(fmt.Sprintf("%d", stats.Ingested)),
			stats.New, stats.Updated, stats.Errors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importLegacyCmd)
}
