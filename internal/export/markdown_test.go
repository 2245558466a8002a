package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testChat(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Fix the flaky test",
		"**Composer:** comp-1",
		"why does TestFoo flake",
		"it races on the buffer",
		"_[tool_call]_",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	input := "plain **bold** text\n```\ncode **stays**\n```\nafter __this__"
	got := escapeMarkdown(input)

	if !strings.Contains(got, `\*\*bold\*\*`) {
		t.Errorf("bold not escaped: %q", got)
	}
	if !strings.Contains(got, "code **stays**") {
		t.Errorf("code block content was escaped: %q", got)
	}
	if !strings.Contains(got, `\_\_this\_\_`) {
		t.Errorf("underscores not escaped: %q", got)
	}
}
