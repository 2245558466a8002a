package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/cursor-archive/internal"
)

// JSONLExporter exports chats in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a chat to JSONL format
func (e *JSONLExporter) Export(chat *internal.Chat, w io.Writer) error {
	enc := json.NewEncoder(w)

	doc := buildDocument(chat)
	for _, msg := range doc.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
