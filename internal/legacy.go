package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// legacyExport mirrors the old chat_data_<hash>.json export layout. Each file
// carries one or more workspace entries, each holding chat tabs.
type legacyExport struct {
	Data []legacyEntry `json:"data"`
}

type legacyEntry struct {
	Data legacyWorkspaceData `json:"data"`
}

type legacyWorkspaceData struct {
	Tabs []legacyTab `json:"tabs"`
}

type legacyTab struct {
	TabID     string         `json:"tabId"`
	ChatTitle string         `json:"chatTitle"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Bubbles   []legacyBubble `json:"bubbles"`
}

type legacyBubble struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"` // "user" or "ai"
	Text      string `json:"text,omitempty"`
	RawText   string `json:"rawText,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// LegacyImporter converts old JSON chat exports into the local store
type LegacyImporter struct {
	store *Store
}

// NewLegacyImporter creates an importer writing into the given store
func NewLegacyImporter(store *Store) *LegacyImporter {
	return &LegacyImporter{store: store}
}

// ImportFile imports every chat tab found in one legacy export file.
// Re-importing the same file updates existing rows rather than duplicating.
func (li *LegacyImporter) ImportFile(path string) (IngestStats, error) {
	var stats IngestStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, &StorageError{Path: path, Op: "read", Err: err}
	}

	var export legacyExport
	if err := json.Unmarshal(data, &export); err != nil {
		return stats, &ParseError{Source: path, Err: err}
	}

	for _, entry := range export.Data {
		for _, tab := range entry.Data.Tabs {
			chat, err := convertLegacyTab(&tab)
			if err != nil {
				LogWarn("Skipping tab %s in %s: %v", tab.TabID, path, err)
				stats.Errors++
				continue
			}
			_, created, err := li.store.UpsertChat(chat)
			if err != nil {
				return stats, err
			}
			stats.Ingested++
			if created {
				stats.New++
			} else {
				stats.Updated++
			}
		}
	}
	return stats, nil
}

// ImportDirectory imports every chat_data_*.json file under dir. A file that
// fails to parse is logged and counted, the rest still import.
func (li *LegacyImporter) ImportDirectory(dir string) (IngestStats, error) {
	var stats IngestStats

	matches, err := filepath.Glob(filepath.Join(dir, "chat_data_*.json"))
	if err != nil {
		return stats, &StorageError{Path: dir, Op: "scan", Err: err}
	}
	if len(matches) == 0 {
		return stats, fmt.Errorf("no legacy export files found in %s", dir)
	}

	for _, path := range matches {
		fileStats, err := li.ImportFile(path)
		stats.Ingested += fileStats.Ingested
		stats.New += fileStats.New
		stats.Updated += fileStats.Updated
		stats.Errors += fileStats.Errors
		if err != nil {
			LogError("Failed to import %s: %v", path, err)
			stats.Errors++
		}
	}
	return stats, nil
}

func convertLegacyTab(tab *legacyTab) (*Chat, error) {
	if tab.TabID == "" {
		return nil, fmt.Errorf("tab has no id")
	}

	chat := &Chat{
		ComposerID: tab.TabID,
		Title:      firstNonEmpty(tab.ChatTitle, "Untitled Chat"),
		Mode:       ModeChat,
		CreatedAt:  fromMillis(tab.Timestamp),
		Source:     SourceLegacy,
	}

	for i := range tab.Bubbles {
		bubble := &tab.Bubbles[i]
		var role MessageRole
		switch bubble.Type {
		case "user":
			role = RoleUser
		case "ai":
			role = RoleAssistant
		default:
			continue
		}

		text := firstNonEmpty(bubble.Text, bubble.RawText)
		msgTime := fromMillis(bubble.Timestamp)
		if msgTime.IsZero() {
			msgTime = chat.CreatedAt
		}
		msgType := TypeResponse
		if strings.TrimSpace(text) == "" {
			msgType = TypeEmpty
		}
		raw, _ := json.Marshal(bubble)
		chat.Messages = append(chat.Messages, Message{
			Role:      role,
			Text:      text,
			CreatedAt: msgTime,
			BubbleID:  bubble.ID,
			RawJSON:   raw,
			Type:      msgType,
		})
	}

	// Tabs rarely carry their own timestamp; fall back to the messages.
	if chat.CreatedAt.IsZero() {
		for _, m := range chat.Messages {
			if !m.CreatedAt.IsZero() && (chat.CreatedAt.IsZero() || m.CreatedAt.Before(chat.CreatedAt)) {
				chat.CreatedAt = m.CreatedAt
			}
		}
	}
	var last time.Time
	for _, m := range chat.Messages {
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	chat.LastUpdatedAt = last
	return chat, nil
}
