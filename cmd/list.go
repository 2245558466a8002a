package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-archive/internal"
	"github.com/spf13/cobra"
)

var (
	listWorkspaceID int64
	listSource      string
	listLimit       int
	listOffset      int
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	workspaceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived chats",
	Long:  `List chats in the local archive, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		chats, err := store.ListChats(internal.ListOptions{
			WorkspaceID: listWorkspaceID,
			Source:      listSource,
			Limit:       listLimit,
			Offset:      listOffset,
		})
		if err != nil {
			return fmt.Errorf("failed to list chats: %w", err)
		}

		displayChats(chats)
		return nil
	},
}

func displayChats(chats []*internal.Chat) {
	if len(chats) == 0 {
		fmt.Println(headerStyle.Render("No archived chats found"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("Found %d chat(s)", len(chats)))
	fmt.Println(header)
	fmt.Println()

	// Use tabwriter for aligned columns with better spacing
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(w, titleStyle.Render("Composer")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Source")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, chat := range chats {
		title := chat.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
		title = nameStyle.Render(title)

		composerID := chat.ComposerID
		if len(composerID) > 12 {
			composerID = composerID[:12]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(composerID),
			title,
			workspaceStyle.Render(chat.Source),
			countStyle.Render(strconv.Itoa(chat.MessagesCount)),
			renderRelativeTime(chat.LastUpdatedAt),
		)
	}

	_ = w.Flush()
}

// renderRelativeTime formats a timestamp the way the list column expects,
// shorter for recent chats, full date for old ones.
func renderRelativeTime(t time.Time) string {
	if t.IsZero() {
		return dateStyle.Render("—")
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return dateStyle.Render(t.Format("Today 15:04"))
	case diff < 7*24*time.Hour:
		return dateStyle.Render(t.Format("Mon 15:04"))
	case diff < 365*24*time.Hour:
		return dateStyle.Render(t.Format("Jan 02 15:04"))
	default:
		return dateStyle.Render(t.Format("2006-01-02"))
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int64Var(&listWorkspaceID, "workspace", 0, "Only chats belonging to this workspace ID")
	listCmd.Flags().StringVar(&listSource, "source", "", "Only chats from this source (cursor, claude, legacy)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of chats to show")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of chats to skip")
}
