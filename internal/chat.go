package internal

import "time"

// ChatMode is the conversation mode as reported by Cursor
type ChatMode string

const (
	ModeChat     ChatMode = "chat"
	ModeEdit     ChatMode = "edit"
	ModeAgent    ChatMode = "agent"
	ModeComposer ChatMode = "composer"
	ModePlan     ChatMode = "plan"
	ModeDebug    ChatMode = "debug"
	ModeAsk      ChatMode = "ask"
)

// ParseChatMode maps a raw mode string to a ChatMode, defaulting to chat
func ParseChatMode(s string) ChatMode {
	switch ChatMode(s) {
	case ModeChat, ModeEdit, ModeAgent, ModeComposer, ModePlan, ModeDebug, ModeAsk:
		return ChatMode(s)
	default:
		return ModeChat
	}
}

// MessageRole identifies who produced a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// MessageType classifies what a message actually carries
type MessageType string

const (
	TypeResponse MessageType = "response"
	TypeToolCall MessageType = "tool_call"
	TypeThinking MessageType = "thinking"
	TypeEmpty    MessageType = "empty"
)

// Workspace represents a Cursor workspace known to the local store.
// Hash is empty for workspaces recovered by path inference.
type Workspace struct {
	ID           int64
	Hash         string
	FolderURI    string
	ResolvedPath string
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
}

// Chat is a normalized conversation
type Chat struct {
	ID            int64
	ComposerID    string
	WorkspaceID   int64 // 0 when unknown
	Title         string
	Mode          ChatMode
	CreatedAt     time.Time
	LastUpdatedAt time.Time
	Source        string // "cursor", "legacy", "claude"
	MessagesCount int
	Messages      []Message
	RelevantFiles []string
}

// Message is a normalized conversation turn
type Message struct {
	ID        int64
	ChatID    int64
	Role      MessageRole
	Text      string
	RichText  string
	CreatedAt time.Time
	BubbleID  string
	RawJSON   []byte
	Type      MessageType
}

// IngestStats summarizes one ingestion pass
type IngestStats struct {
	Ingested           int `json:"ingested"`
	Skipped            int `json:"skipped"`
	Errors             int `json:"errors"`
	New                int `json:"new"`
	Updated            int `json:"updated"`
	InferredWorkspaces int `json:"inferred_workspaces"`
}

// ProgressFunc reports ingestion progress. total is 0 when unknown up front.
type ProgressFunc func(composerID string, current, total int)

// fromMillis converts an epoch-milliseconds timestamp, 0 meaning unknown
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.Unix(0, ms*int64(time.Millisecond))
}
