package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-archive/internal"
	"github.com/spf13/cobra"
)

var showLimit int

var (
	// Styles for show command
	chatHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	chatMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <chat>",
	Short: "Show one archived chat",
	Long:  `Display an archived conversation by its composer ID or numeric archive ID.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		chat, err := lookupChat(store, args[0])
		if err != nil {
			return err
		}
		if chat == nil {
			return fmt.Errorf("chat not found: %s", args[0])
		}
		// The composer-ID lookup returns the row without children.
		if len(chat.Messages) == 0 && chat.MessagesCount > 0 {
			chat, err = store.GetChat(chat.ID)
			if err != nil {
				return err
			}
		}

		displayChat(chat)
		return nil
	},
}

// lookupChat resolves a chat by composer ID first, then by archive row ID
func lookupChat(store *internal.Store, ref string) (*internal.Chat, error) {
	chat, err := store.GetChatByComposerID(ref)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}
	id, convErr := strconv.ParseInt(ref, 10, 64)
	if convErr != nil {
		return nil, nil
	}
	return store.GetChat(id)
}

func displayChat(chat *internal.Chat) {
	fmt.Println(chatHeaderStyle.Render(chat.Title))

	meta := fmt.Sprintf("Composer: %s  |  Source: %s  |  Mode: %s  |  Messages: %d",
		chat.ComposerID, chat.Source, chat.Mode, len(chat.Messages))
	if !chat.LastUpdatedAt.IsZero() {
		meta += "  |  Updated: " + chat.LastUpdatedAt.Format("2006-01-02 15:04")
	}
	fmt.Println(chatMetaStyle.Render(meta))
	fmt.Println(strings.Repeat("─", 72))

	messages := chat.Messages
	if showLimit > 0 && len(messages) > showLimit {
		fmt.Println(chatMetaStyle.Render(fmt.Sprintf("(showing last %d of %d messages)", showLimit, len(messages))))
		messages = messages[len(messages)-showLimit:]
	}

	for _, msg := range messages {
		label := string(msg.Role)
		style := assistantMessageStyle
		if msg.Role == internal.RoleUser {
			style = userMessageStyle
		}
		if msg.Type != internal.TypeResponse {
			label += " [" + string(msg.Type) + "]"
		}

		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = timestampStyle.Render(" " + msg.CreatedAt.Format("15:04:05"))
		}

		fmt.Println(style.Render(label) + timestamp)
		if msg.Text != "" {
			fmt.Println(messageContentStyle.Render(msg.Text))
		}
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Show only the last N messages (0 = all)")
}
