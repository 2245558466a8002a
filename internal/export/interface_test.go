package export

import (
	"testing"
	"time"

	"github.com/iksnae/cursor-archive/internal"
)

func testChat() *internal.Chat {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &internal.Chat{
		ID:            7,
		ComposerID:    "comp-1",
		Title:         "Fix the flaky test",
		Mode:          internal.ModeAgent,
		Source:        internal.SourceCursor,
		CreatedAt:     created,
		LastUpdatedAt: created.Add(time.Hour),
		RelevantFiles: []string{"internal/foo_test.go"},
		Messages: []internal.Message{
			{Role: internal.RoleUser, Text: "why does TestFoo flake", CreatedAt: created, Type: internal.TypeResponse},
			{Role: internal.RoleAssistant, Text: "it races on the buffer", CreatedAt: created.Add(time.Minute), Type: internal.TypeResponse},
			{Role: internal.RoleAssistant, CreatedAt: created.Add(2 * time.Minute), Type: internal.TypeToolCall},
		},
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format    string
		extension string
	}{
		{"json", "json"},
		{"jsonl", "jsonl"},
		{"md", "md"},
		{"markdown", "md"},
		{"yaml", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if err != nil {
				t.Fatalf("NewExporter(%q) error = %v", tt.format, err)
			}
			if exporter.Extension() != tt.extension {
				t.Errorf("Extension() = %q, want %q", exporter.Extension(), tt.extension)
			}
		})
	}
}

func TestNewExporterUnsupported(t *testing.T) {
	if _, err := NewExporter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestBuildDocument(t *testing.T) {
	doc := buildDocument(testChat())
	if doc.ComposerID != "comp-1" || doc.Mode != "agent" || doc.Source != "cursor" {
		t.Errorf("doc header = %+v", doc)
	}
	if doc.CreatedAt != "2025-06-01T10:00:00Z" {
		t.Errorf("CreatedAt = %q", doc.CreatedAt)
	}
	if len(doc.Messages) != 3 {
		t.Fatalf("len(messages) = %d", len(doc.Messages))
	}
	if doc.Messages[2].Type != "tool_call" {
		t.Errorf("message 2 type = %q", doc.Messages[2].Type)
	}
}

func TestBuildDocumentZeroTimes(t *testing.T) {
	chat := &internal.Chat{ComposerID: "c", Mode: internal.ModeChat}
	doc := buildDocument(chat)
	if doc.CreatedAt != "" || doc.LastUpdatedAt != "" {
		t.Errorf("zero timestamps serialized as %q / %q, want empty", doc.CreatedAt, doc.LastUpdatedAt)
	}
}
