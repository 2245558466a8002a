package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/cursor-archive/internal"
)

// MarkdownExporter exports chats in Markdown format
type MarkdownExporter struct{}

// Export exports a chat to Markdown format
func (e *MarkdownExporter) Export(chat *internal.Chat, w io.Writer) error {
	doc := buildDocument(chat)

	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", doc.Title)

	_, _ = fmt.Fprintf(w, "**Composer:** %s  \n", doc.ComposerID)
	_, _ = fmt.Fprintf(w, "**Source:** %s  \n", doc.Source)
	_, _ = fmt.Fprintf(w, "**Mode:** %s  \n", doc.Mode)
	if doc.CreatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", doc.CreatedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(doc.Messages))

	if len(doc.RelevantFiles) > 0 {
		_, _ = fmt.Fprintf(w, "**Files:**\n\n")
		for _, f := range doc.RelevantFiles {
			_, _ = fmt.Fprintf(w, "- `%s`\n", f)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	// Messages
	for i, msg := range doc.Messages {
		timestamp := ""
		if msg.CreatedAt != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt)
		}

		content := msg.Text
		if content == "" && msg.Type != string(internal.TypeResponse) {
			content = fmt.Sprintf("_[%s]_", msg.Type)
		}
		content = escapeMarkdown(content)

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, content)

		// Add horizontal rule after each message (except the last one)
		if i < len(doc.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
