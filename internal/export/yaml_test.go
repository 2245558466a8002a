package export

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestYAMLExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testChat(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc struct {
		ComposerID string `yaml:"composer_id"`
		Title      string `yaml:"title"`
		Messages   []struct {
			Role string `yaml:"role"`
			Text string `yaml:"text"`
		} `yaml:"messages"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if doc.ComposerID != "comp-1" || doc.Title != "Fix the flaky test" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Messages) != 3 || doc.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", doc.Messages)
	}
}
