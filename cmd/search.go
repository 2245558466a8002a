package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchOffset int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search across archived chats",
	Long: `Search message text across the archive using SQLite FTS5 syntax.

Examples:
  cursor-archive search "race condition"
  cursor-archive search 'goroutine NEAR leak'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		results, err := store.SearchChats(args[0], searchLimit, searchOffset)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println(headerStyle.Render("No matches"))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%d matching chat(s)", len(results))))
		fmt.Println()
		for _, res := range results {
			fmt.Printf("%s  %s\n", idStyle.Render(res.Chat.ComposerID), titleStyle.Render(res.Chat.Title))
			if res.Snippet != "" {
				fmt.Printf("    %s\n", dateStyle.Render(res.Snippet))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of chats to return")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Number of results to skip")
}
