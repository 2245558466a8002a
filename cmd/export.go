package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/cursor-archive/internal"
	"github.com/iksnae/cursor-archive/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat    string
	exportOutputDir string
	exportChatRef   string
	exportSource    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived chats to file",
	Long: `Export archived chats to various formats (jsonl, md, yaml, json).

You can export the whole archive, filter by source, or export a single chat
by composer ID. Use 'cursor-archive list' to see available IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		var chats []*internal.Chat
		if exportChatRef != "" {
			chat, err := lookupChat(store, exportChatRef)
			if err != nil {
				return err
			}
			if chat == nil {
				return fmt.Errorf("chat not found: %s", exportChatRef)
			}
			if len(chat.Messages) == 0 {
				if chat, err = store.GetChat(chat.ID); err != nil {
					return err
				}
			}
			chats = []*internal.Chat{chat}
		} else {
			rows, err := store.ListChats(internal.ListOptions{Source: exportSource})
			if err != nil {
				return fmt.Errorf("failed to list chats: %w", err)
			}
			for _, row := range rows {
				full, err := store.GetChat(row.ID)
				if err != nil {
					return err
				}
				chats = append(chats, full)
			}
		}

		if len(chats) == 0 {
			fmt.Println(headerStyle.Render("Nothing to export"))
			return nil
		}

		if err := os.MkdirAll(exportOutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		for _, chat := range chats {
			filename := fmt.Sprintf("%s.%s", exportFileStem(chat), exporter.Extension())
			path := filepath.Join(exportOutputDir, filename)

			file, err := os.Create(path)
			if err != nil {
				internal.LogError("Failed to create file %s: %v", path, err)
				continue
			}
			if err := exporter.Export(chat, file); err != nil {
				internal.LogError("Failed to export chat %s: %v", chat.ComposerID, err)
				_ = file.Close()
				continue
			}
			if err := file.Close(); err != nil {
				internal.LogWarn("Failed to close file %s: %v", path, err)
			}
			exported++
		}

		fmt.Printf("Exported %d chat(s) to %s\n", exported, exportOutputDir)
		return nil
	},
}

// exportFileStem builds a filesystem-safe file name for a chat
func exportFileStem(chat *internal.Chat) string {
	stem := chat.Title
	if stem == "" || stem == "Untitled Chat" {
		stem = chat.ComposerID
	}
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, stem)
	if stem == "" {
		stem = chat.ComposerID
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return fmt.Sprintf("%s-%d", stem, chat.ID)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&exportChatRef, "chat", "", "Export a single chat by composer ID or archive ID")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "Only chats from this source (cursor, claude, legacy)")
}
