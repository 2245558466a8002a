package export

import (
	"io"

	"github.com/iksnae/cursor-archive/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports chats in YAML format
type YAMLExporter struct{}

// Export exports a chat to YAML format
func (e *YAMLExporter) Export(chat *internal.Chat, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(buildDocument(chat))
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
