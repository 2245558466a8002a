package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/cursor-archive/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	dbPath      string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cursor-archive",
	Short: "Archive and search Cursor IDE chat history",
	Long: `A CLI tool that ingests chat history from Cursor IDE's internal storage
into a durable local archive you can list, search, and export.

The ingester reads Cursor's globalStorage database, resolves conversations
stored as headers, links chats to their workspaces (inferring the project
root when the workspace registration is missing), and normalizes everything
into a local SQLite archive with full-text search.

Quick Start:
  cursor-archive ingest                  # Pull chats into the local archive
  cursor-archive list                    # List archived chats
  cursor-archive search "race condition" # Full-text search
  cursor-archive show <composer-id>      # View one conversation
  cursor-archive export --format md      # Export as Markdown

For detailed usage, see: https://github.com/iksnae/cursor-archive`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom Cursor storage location (base directory containing globalStorage)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the local archive database (default ~/.cursor-archive/chats.db)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openArchive opens the local archive store honoring the --db flag
func openArchive() (*internal.Store, error) {
	path := dbPath
	if path == "" {
		var err error
		path, err = internal.DefaultLocalDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve archive path: %w", err)
		}
	}
	store, err := internal.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return store, nil
}
