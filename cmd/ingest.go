package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-archive/internal"
	"github.com/spf13/cobra"
)

var (
	ingestIncremental bool
	ingestSource      string
	ingestReingest    bool
	claudeOrgID       string
	claudeSessionKey  string
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest chat history into the local archive",
	Long: `Ingest chat history into the local archive.

By default the ingester reads Cursor's globalStorage database, resolves
conversations, links workspaces, and upserts every chat. With --incremental
only conversations newer than the last recorded run are processed.

Use --source claude with --org and --session-key to pull conversations from
the claude.ai API instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		opts := internal.IngestOptions{
			Incremental:           ingestIncremental,
			ReingestUntimestamped: ingestReingest,
			Progress: func(id string, current, total int) {
				if total > 0 {
					fmt.Println(progressStyle.Render(fmt.Sprintf("  %d/%d conversations...", current, total)))
				} else {
					fmt.Println(progressStyle.Render(fmt.Sprintf("  %d conversations...", current)))
				}
			},
		}

		var stats internal.IngestStats
		switch ingestSource {
		case internal.SourceCursor:
			stats, err = runCursorIngest(store, opts)
		case internal.SourceClaude:
			stats, err = runClaudeIngest(store, opts)
		default:
			return fmt.Errorf("unsupported source: %s (supported: cursor, claude)", ingestSource)
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s ingested (%d new, %d updated), %d skipped, %d errors",
			statStyle.Render(fmt.Sprintf("%d", stats.Ingested)),
			stats.New, stats.Updated, stats.Skipped, stats.Errors)
		if stats.InferredWorkspaces > 0 {
			fmt.Printf(", %d workspaces inferred", stats.InferredWorkspaces)
		}
		fmt.Println()
		return nil
	},
}

func runCursorIngest(store *internal.Store, opts internal.IngestOptions) (internal.IngestStats, error) {
	var stats internal.IngestStats

	paths, err := internal.GetStoragePaths(storagePath)
	if err != nil {
		return stats, fmt.Errorf("failed to get storage paths: %w", err)
	}
	if !paths.GlobalStorageExists() {
		return stats, fmt.Errorf("no Cursor global storage found at %s", paths.GlobalStorageDBPath())
	}

	global, db, err := internal.OpenGlobalStore(paths.GlobalStorageDBPath())
	if err != nil {
		return stats, fmt.Errorf("failed to open global storage: %w", err)
	}
	defer func() { _ = db.Close() }()

	workspaces := internal.NewWorkspaceStore(paths.WorkspaceStorage)
	agg := internal.NewAggregator(store, global, workspaces)
	return agg.Ingest(opts)
}

func runClaudeIngest(store *internal.Store, opts internal.IngestOptions) (internal.IngestStats, error) {
	var stats internal.IngestStats

	reader, err := internal.NewClaudeReader(claudeOrgID, claudeSessionKey)
	if err != nil {
		return stats, fmt.Errorf("failed to create claude reader: %w", err)
	}

	agg := internal.NewAggregator(store, nil, nil)
	return agg.IngestClaude(reader, opts)
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestIncremental, "incremental", false, "Only process conversations newer than the last run")
	ingestCmd.Flags().StringVar(&ingestSource, "source", internal.SourceCursor, "Source to ingest from (cursor, claude)")
	ingestCmd.Flags().BoolVar(&ingestReingest, "reingest-untimestamped", false, "Reprocess conversations that carry no timestamp even when already archived")
	ingestCmd.Flags().StringVar(&claudeOrgID, "org", "", "Claude organization ID (with --source claude)")
	ingestCmd.Flags().StringVar(&claudeSessionKey, "session-key", "", "Claude session cookie (with --source claude)")
}
