package internal

import (
	"strings"
	"testing"
)

func TestExtractRichText(t *testing.T) {
	doc := `{"root":{"children":[
		{"type":"paragraph","children":[{"type":"text","text":"fix the "},{"type":"text","text":"bug"}]}
	]}}`
	got := ExtractRichText(doc)
	if got != "fix the bug" {
		t.Errorf("ExtractRichText() = %q, want %q", got, "fix the bug")
	}
}

func TestExtractRichTextCodeBlock(t *testing.T) {
	doc := `{"root":{"children":[
		{"type":"code","children":[{"type":"text","text":"x := 1"}]}
	]}}`
	got := ExtractRichText(doc)
	if !strings.Contains(got, "```") || !strings.Contains(got, "x := 1") {
		t.Errorf("ExtractRichText() = %q, want fenced code block", got)
	}
}

func TestExtractRichTextFallbackFields(t *testing.T) {
	doc := `{"root":{"children":[{"type":"mystery","content":"hidden text"}]}}`
	if got := ExtractRichText(doc); got != "hidden text" {
		t.Errorf("ExtractRichText() = %q, want content field surfaced", got)
	}
}

func TestExtractRichTextBadInput(t *testing.T) {
	for _, input := range []string{"", "{not json", "42"} {
		if got := ExtractRichText(input); got != "" {
			t.Errorf("ExtractRichText(%q) = %q, want empty", input, got)
		}
	}
}
