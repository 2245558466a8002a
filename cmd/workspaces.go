package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// workspacesCmd represents the workspaces command
var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List known workspaces",
	Long:  `List workspaces seen during ingestion, including ones recovered by path inference.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		workspaces, err := store.ListWorkspaces()
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}
		if len(workspaces) == 0 {
			fmt.Println(headerStyle.Render("No workspaces recorded yet"))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%d workspace(s)", len(workspaces))))
		fmt.Println()

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Hash")+"\t"+titleStyle.Render("Path")+"\t"+titleStyle.Render("Chats")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

		for _, ws := range workspaces {
			hash := ws.Hash
			if hash == "" {
				hash = workspaceStyle.Render("(inferred)")
			} else if len(hash) > 12 {
				hash = idStyle.Render(hash[:12])
			}
			count, err := store.CountChats(ws.ID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
				ws.ID, hash, ws.ResolvedPath, countStyle.Render(fmt.Sprintf("%d", count)))
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspacesCmd)
}
