package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testChat(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["composer_id"] != "comp-1" {
		t.Errorf("composer_id = %v", doc["composer_id"])
	}
	messages, ok := doc["messages"].([]interface{})
	if !ok || len(messages) != 3 {
		t.Errorf("messages = %v", doc["messages"])
	}
}

func TestJSONLExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testChat(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want one per message (3)", len(lines))
	}
	for i, line := range lines {
		var msg map[string]interface{}
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if msg["role"] == "" {
			t.Errorf("line %d missing role", i)
		}
	}
}
