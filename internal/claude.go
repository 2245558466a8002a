package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const claudeAPIBase = "https://claude.ai/api/organizations"

// ClaudeConversation is one fully-resolved conversation from the chat API.
// There is no header/body split and no workspace concept.
type ClaudeConversation struct {
	UUID      string          `json:"uuid"`
	Name      string          `json:"name,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
	Messages  []ClaudeMessage `json:"chat_messages,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ClaudeMessage is one turn; text arrives as typed content blocks
type ClaudeMessage struct {
	UUID      string               `json:"uuid"`
	Sender    string               `json:"sender"` // "human" or "assistant"
	CreatedAt string               `json:"created_at,omitempty"`
	Text      string               `json:"text,omitempty"`
	Content   []ClaudeContentBlock `json:"content,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ClaudeContentBlock is a typed fragment of a message
type ClaudeContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

// CombinedText concatenates the message's text content blocks, falling back
// to the flat text field for older payloads.
func (m *ClaudeMessage) CombinedText() string {
	var parts []string
	for _, block := range m.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 && m.Text != "" {
		return m.Text
	}
	return strings.Join(parts, "\n\n")
}

// ConversationSource streams fully-resolved external conversations
type ConversationSource interface {
	ForEachConversation(fn func(*ClaudeConversation) bool) error
}

// ClaudeReader fetches conversations from the claude.ai internal API using a
// session cookie, mirroring what the web client sends.
type ClaudeReader struct {
	orgID         string
	sessionCookie string
	client        *http.Client
	baseURL       string
}

// NewClaudeReader creates a reader for the given organization and session
func NewClaudeReader(orgID, sessionCookie string) (*ClaudeReader, error) {
	if orgID == "" {
		return nil, errors.New("org id is required")
	}
	if sessionCookie == "" {
		return nil, errors.New("session cookie is required")
	}
	return &ClaudeReader{
		orgID:         orgID,
		sessionCookie: sessionCookie,
		client:        &http.Client{Timeout: 60 * time.Second},
		baseURL:       claudeAPIBase,
	}, nil
}

func (r *ClaudeReader) get(url string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "sessionKey="+r.sessionCookie)

	resp, err := r.client.Do(req)
	if err != nil {
		return &StorageError{Path: url, Op: "read", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StorageError{Path: url, Op: "read", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StorageError{Path: url, Op: "read", Err: err}
	}
	return json.Unmarshal(body, out)
}

// ForEachConversation lists conversations and fetches each one's detail. A
// conversation whose detail fetch fails is degraded to its list metadata and
// logged, never fatal to the scan.
func (r *ClaudeReader) ForEachConversation(fn func(*ClaudeConversation) bool) error {
	listURL := fmt.Sprintf("%s/%s/chat_conversations", r.baseURL, r.orgID)
	var listing []ClaudeConversation
	if err := r.get(listURL, &listing); err != nil {
		return err
	}

	for i := range listing {
		conv := listing[i]
		detailURL := fmt.Sprintf(
			"%s/%s/chat_conversations/%s?tree=True&rendering_mode=messages&render_all_tools=true&consistency=eventual",
			r.baseURL, r.orgID, conv.UUID)

		var detail ClaudeConversation
		if err := r.get(detailURL, &detail); err != nil {
			LogWarn("Failed to fetch conversation %s detail: %v", conv.UUID, err)
		} else {
			detail.UUID = conv.UUID
			if detail.Name == "" {
				detail.Name = conv.Name
			}
			if detail.UpdatedAt == "" {
				detail.UpdatedAt = conv.UpdatedAt
			}
			conv = detail
		}
		if !fn(&conv) {
			return nil
		}
	}
	return nil
}

// IngestClaude runs one pass over an external chat-API source. Conversations
// arrive fully resolved, so there is no header expansion and no workspace
// inference; role mapping is by sender name.
func (a *Aggregator) IngestClaude(source ConversationSource, opts IngestOptions) (IngestStats, error) {
	var stats IngestStats
	if !a.running.CompareAndSwap(false, true) {
		return stats, ErrIngestRunning
	}
	defer a.running.Store(false)

	LogInfo("Starting claude ingestion (incremental=%v)", opts.Incremental)

	var state *IngestionState
	var err error
	if opts.Incremental {
		if state, err = a.store.GetIngestionState(SourceClaude); err != nil {
			return stats, err
		}
	}

	var maxSeen time.Time
	var maxSeenID string
	processed := 0
	var abort error

	err = source.ForEachConversation(func(conv *ClaudeConversation) bool {
		processed++
		if opts.Progress != nil && processed%progressInterval == 0 {
			opts.Progress(conv.UUID, processed, 0)
		}

		updated := parseClaudeTime(conv.UpdatedAt)
		if !updated.IsZero() && updated.After(maxSeen) {
			maxSeen = updated
			maxSeenID = conv.UUID
		}
		if opts.Incremental && state != nil && !updated.IsZero() && !updated.After(state.LastProcessedTimestamp) {
			stats.Skipped++
			return true
		}

		chat, err := convertClaudeConversation(conv)
		if err != nil {
			LogError("Error converting conversation %s: %v", conv.UUID, err)
			stats.Errors++
			return true
		}

		_, created, err := a.store.UpsertChat(chat)
		if err != nil {
			abort = err
			return false
		}
		stats.Ingested++
		if created {
			stats.New++
		} else {
			stats.Updated++
		}
		return true
	})
	if err != nil {
		return stats, err
	}
	if abort != nil {
		return stats, abort
	}
	// The listing streams without a known total, so report it at the end
	if opts.Progress != nil && processed%progressInterval != 0 {
		opts.Progress("", processed, processed)
	}

	newState := &IngestionState{
		Source:                 SourceClaude,
		LastRunAt:              time.Now(),
		LastProcessedTimestamp: maxSeen,
		LastID:                 maxSeenID,
		Stats:                  stats,
	}
	if state != nil && state.LastProcessedTimestamp.After(maxSeen) {
		newState.LastProcessedTimestamp = state.LastProcessedTimestamp
		newState.LastID = state.LastID
	}
	if err := a.store.UpdateIngestionState(newState); err != nil {
		return stats, err
	}

	LogInfo("Claude ingestion complete: %d ingested (%d new, %d updated), %d skipped, %d errors",
		stats.Ingested, stats.New, stats.Updated, stats.Skipped, stats.Errors)
	return stats, nil
}

func convertClaudeConversation(conv *ClaudeConversation) (*Chat, error) {
	if conv.UUID == "" {
		return nil, &ConvertError{Err: errors.New("missing conversation uuid")}
	}

	chat := &Chat{
		ComposerID:    conv.UUID,
		Title:         firstNonEmpty(conv.Name, conv.Summary, "Untitled Chat"),
		Mode:          ModeChat,
		CreatedAt:     parseClaudeTime(conv.CreatedAt),
		LastUpdatedAt: parseClaudeTime(conv.UpdatedAt),
		Source:        SourceClaude,
	}

	for i := range conv.Messages {
		msg := &conv.Messages[i]
		role, ok := roleForSender(msg.Sender)
		if !ok {
			continue
		}
		msgTime := parseClaudeTime(msg.CreatedAt)
		if msgTime.IsZero() {
			msgTime = chat.CreatedAt
		}
		text := msg.CombinedText()
		msgType := TypeResponse
		if strings.TrimSpace(text) == "" {
			msgType = TypeEmpty
		}
		raw, _ := json.Marshal(msg)
		chat.Messages = append(chat.Messages, Message{
			Role:      role,
			Text:      text,
			CreatedAt: msgTime,
			BubbleID:  msg.UUID,
			RawJSON:   raw,
			Type:      msgType,
		})
	}
	return chat, nil
}

// roleForSender maps the API's sender names to roles; unknown senders drop
func roleForSender(sender string) (MessageRole, bool) {
	switch sender {
	case "human":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	default:
		return "", false
	}
}

func parseClaudeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
