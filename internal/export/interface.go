package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/cursor-archive/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(chat *internal.Chat, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// chatDocument is the serialized shape shared by the JSON and YAML exporters
type chatDocument struct {
	ComposerID    string            `json:"composer_id" yaml:"composer_id"`
	Title         string            `json:"title" yaml:"title"`
	Mode          string            `json:"mode" yaml:"mode"`
	Source        string            `json:"source" yaml:"source"`
	CreatedAt     string            `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	LastUpdatedAt string            `json:"last_updated_at,omitempty" yaml:"last_updated_at,omitempty"`
	RelevantFiles []string          `json:"relevant_files,omitempty" yaml:"relevant_files,omitempty"`
	Messages      []messageDocument `json:"messages" yaml:"messages"`
}

type messageDocument struct {
	Role      string `json:"role" yaml:"role"`
	Type      string `json:"type" yaml:"type"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	BubbleID  string `json:"bubble_id,omitempty" yaml:"bubble_id,omitempty"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func buildDocument(chat *internal.Chat) *chatDocument {
	doc := &chatDocument{
		ComposerID:    chat.ComposerID,
		Title:         chat.Title,
		Mode:          string(chat.Mode),
		Source:        chat.Source,
		CreatedAt:     formatTimestamp(chat.CreatedAt),
		LastUpdatedAt: formatTimestamp(chat.LastUpdatedAt),
		RelevantFiles: chat.RelevantFiles,
		Messages:      make([]messageDocument, 0, len(chat.Messages)),
	}
	for _, msg := range chat.Messages {
		doc.Messages = append(doc.Messages, messageDocument{
			Role:      string(msg.Role),
			Type:      string(msg.Type),
			Text:      msg.Text,
			CreatedAt: formatTimestamp(msg.CreatedAt),
			BubbleID:  msg.BubbleID,
		})
	}
	return doc
}
