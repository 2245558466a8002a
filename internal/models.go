package internal

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Key prefixes used by the global cursorDiskKV table
const (
	ComposerKeyPrefix = "composerData:"
	BubbleKeyPrefix   = "bubbleId:"
)

// RawComposer mirrors the composerData JSON document stored in the global
// database. Only the fields the pipeline reads are typed; the full payload is
// preserved in Raw.
type RawComposer struct {
	ComposerID                  string                     `json:"composerId"`
	Name                        string                     `json:"name,omitempty"`
	Subtitle                    string                     `json:"subtitle,omitempty"`
	CreatedAt                   int64                      `json:"createdAt,omitempty"`
	LastUpdatedAt               int64                      `json:"lastUpdatedAt,omitempty"`
	ForceMode                   string                     `json:"forceMode,omitempty"`
	UnifiedMode                 string                     `json:"unifiedMode,omitempty"`
	Conversation                []*RawBubble               `json:"conversation,omitempty"`
	FullConversationHeadersOnly []ConversationHeader       `json:"fullConversationHeadersOnly,omitempty"`
	Context                     json.RawMessage            `json:"context,omitempty"`
	CodeBlockData               map[string]json.RawMessage `json:"codeBlockData,omitempty"`
	NewlyCreatedFiles           []string                   `json:"newlyCreatedFiles,omitempty"`
	OriginalFileStates          map[string]json.RawMessage `json:"originalFileStates,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ConversationHeader is a turn stub in the headers-only encoding
type ConversationHeader struct {
	BubbleID string `json:"bubbleId"`
	Type     int    `json:"type"` // 1=user, 2=assistant
}

// RawBubble mirrors one turn body, either embedded in a conversation array or
// stored under its own bubbleId key.
type RawBubble struct {
	BubbleID       string          `json:"bubbleId"`
	ComposerID     string          `json:"-"`
	Type           int             `json:"type"`
	Text           string          `json:"text,omitempty"`
	RichText       string          `json:"richText,omitempty"`
	CreatedAt      int64           `json:"createdAt,omitempty"`
	ToolFormerData json.RawMessage `json:"toolFormerData,omitempty"`
	ToolResults    json.RawMessage `json:"toolResults,omitempty"`
	Thinking       json.RawMessage `json:"thinking,omitempty"`
	RelevantFiles  []string        `json:"relevantFiles,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// HasTimestamp reports whether the composer carries any usable timestamp
func (rc *RawComposer) HasTimestamp() bool {
	return rc.LastUpdatedAt != 0 || rc.CreatedAt != 0
}

// BestUpdatedAt returns lastUpdatedAt falling back to createdAt, in epoch ms
func (rc *RawComposer) BestUpdatedAt() int64 {
	if rc.LastUpdatedAt != 0 {
		return rc.LastUpdatedAt
	}
	return rc.CreatedAt
}

// DecodeStoreKey normalizes a cursorDiskKV key. Keys have been observed both
// as plain UTF-8 text and as hex-encoded UTF-8; both forms are accepted.
func DecodeStoreKey(key string) string {
	if strings.ContainsRune(key, ':') {
		return key
	}
	decoded, err := hex.DecodeString(key)
	if err != nil {
		return key
	}
	return string(decoded)
}

// EncodeStoreKeyHex returns the hex-encoded form of a key, as written by
// installs that store binary keys.
func EncodeStoreKeyHex(key string) string {
	return hex.EncodeToString([]byte(key))
}

// ParseRawComposer parses a cursorDiskKV entry into a RawComposer. The key
// carries the composer ID: composerData:<composerId>.
func ParseRawComposer(key string, value []byte) (*RawComposer, error) {
	decoded := DecodeStoreKey(key)
	if !strings.HasPrefix(decoded, ComposerKeyPrefix) {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("not a composerData key")}
	}
	composerID := decoded[len(ComposerKeyPrefix):]
	if composerID == "" {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("empty composer id")}
	}

	var composer RawComposer
	if err := json.Unmarshal(value, &composer); err != nil {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: err}
	}
	if composer.ComposerID == "" {
		composer.ComposerID = composerID
	}
	composer.Raw = append(json.RawMessage(nil), value...)
	return &composer, nil
}

// ParseRawBubble parses a cursorDiskKV entry into a RawBubble. The key format
// is bubbleId:<composerId>:<bubbleId>.
func ParseRawBubble(key string, value []byte) (*RawBubble, error) {
	decoded := DecodeStoreKey(key)
	if !strings.HasPrefix(decoded, BubbleKeyPrefix) {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("not a bubbleId key")}
	}
	parts := strings.SplitN(decoded[len(BubbleKeyPrefix):], ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("invalid bubbleId key format")}
	}

	var bubble RawBubble
	if err := json.Unmarshal(value, &bubble); err != nil {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: err}
	}
	bubble.ComposerID = parts[0]
	bubble.BubbleID = parts[1]
	bubble.Raw = append(json.RawMessage(nil), value...)
	return &bubble, nil
}
