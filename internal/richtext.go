package internal

import (
	"encoding/json"
	"strings"
)

// Cursor stores the editor's rendering of a message as a Lexical JSON
// document in richText. When a bubble carries richText but no plain text,
// the archive recovers the text from the node tree.

type richTextNode struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Content  string         `json:"content,omitempty"`
	Value    string         `json:"value,omitempty"`
	Children []richTextNode `json:"children,omitempty"`
}

// ExtractRichText parses a richText JSON document and returns its plain
// text. Unparseable or empty documents yield "".
func ExtractRichText(richTextJSON string) string {
	if richTextJSON == "" {
		return ""
	}

	var doc struct {
		Root richTextNode `json:"root"`
	}
	if err := json.Unmarshal([]byte(richTextJSON), &doc); err == nil && len(doc.Root.Children) > 0 {
		return strings.TrimSpace(richTextChildren(doc.Root.Children))
	}

	var node richTextNode
	if err := json.Unmarshal([]byte(richTextJSON), &node); err == nil {
		return strings.TrimSpace(richTextFromNode(node))
	}

	var nodes []richTextNode
	if err := json.Unmarshal([]byte(richTextJSON), &nodes); err == nil {
		return strings.TrimSpace(richTextChildren(nodes))
	}

	return ""
}

func richTextFromNode(node richTextNode) string {
	var text string

	switch node.Type {
	case "text":
		text += node.Text
	case "code":
		// Code blocks keep markdown fences so exports stay readable
		if code := richTextChildren(node.Children); code != "" {
			text += "\n```\n" + code + "\n```\n"
		}
		return text
	case "linebreak", "paragraph":
		if inner := richTextChildren(node.Children); inner != "" {
			text += inner
		}
		text += "\n"
		return text
	default:
		// Unknown node types still surface whatever text they carry
		text += node.Text
		if node.Content != "" {
			if text != "" {
				text += "\n"
			}
			text += node.Content
		}
		if node.Value != "" {
			if text != "" {
				text += "\n"
			}
			text += node.Value
		}
	}

	if len(node.Children) > 0 {
		inner := richTextChildren(node.Children)
		if inner != "" {
			if text != "" && !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			text += inner
		}
	}
	return text
}

func richTextChildren(children []richTextNode) string {
	var text string
	for _, child := range children {
		text += richTextFromNode(child)
	}
	return text
}
