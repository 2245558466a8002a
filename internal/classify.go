package internal

import "strings"

// ClassifyBubble determines what a turn actually carries. This is a pure
// per-turn lookup, not a state machine. Text presence is checked first: a
// turn carrying both text and tool metadata counts as a response.
func ClassifyBubble(bubble *RawBubble) MessageType {
	if strings.TrimSpace(bubble.Text) != "" || strings.TrimSpace(bubble.RichText) != "" {
		return TypeResponse
	}
	if hasJSONContent(bubble.ToolFormerData) || hasJSONContent(bubble.ToolResults) {
		return TypeToolCall
	}
	if hasJSONContent(bubble.Thinking) {
		return TypeThinking
	}
	return TypeEmpty
}

// hasJSONContent reports whether a raw JSON field holds anything beyond
// null/empty object/empty array/empty string.
func hasJSONContent(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
