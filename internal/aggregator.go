package internal

import (
	"errors"
	"sort"
	"sync/atomic"
	"time"
)

// Source tags recorded on chats and watermark rows
const (
	SourceCursor = "cursor"
	SourceLegacy = "legacy"
	SourceClaude = "claude"
)

// Progress callbacks fire every progressInterval conversations and once at
// the end of the scan.
const progressInterval = 100

// ComposerSource is the slice of the global store the aggregator consumes
type ComposerSource interface {
	ForEachComposer(fn func(*RawComposer) bool) error
	CountComposers() (int, error)
	BubbleFetcher
}

// WorkspaceSource provides per-workspace metadata
type WorkspaceSource interface {
	ReadAll() (map[string]*WorkspaceMeta, error)
}

// IngestOptions controls one ingestion pass
type IngestOptions struct {
	// Incremental skips conversations not newer than the stored watermark
	Incremental bool
	// ReingestUntimestamped forces processing of conversations that carry no
	// timestamp even when a local row already exists. The default mirrors the
	// historical skip, which under-ingests; the skip is logged so it stays
	// visible.
	ReingestUntimestamped bool
	Progress              ProgressFunc
}

// Aggregator streams source conversations, normalizes them, and upserts them
// into the local store. Readers are injected so tests can substitute fakes.
type Aggregator struct {
	store      *Store
	global     ComposerSource
	workspaces WorkspaceSource
	running    atomic.Bool
}

// NewAggregator creates an aggregator over the given store and readers
func NewAggregator(store *Store, global ComposerSource, workspaces WorkspaceSource) *Aggregator {
	return &Aggregator{store: store, global: global, workspaces: workspaces}
}

// Ingest runs one full pass over the global store. It is single-flight: a
// call while another pass is running returns ErrIngestRunning. Per-entry and
// per-conversation failures are counted and logged; storage failures abort
// the run before the watermark moves.
func (a *Aggregator) Ingest(opts IngestOptions) (IngestStats, error) {
	var stats IngestStats
	if !a.running.CompareAndSwap(false, true) {
		return stats, ErrIngestRunning
	}
	defer a.running.Store(false)

	LogInfo("Starting chat ingestion (incremental=%v)", opts.Incremental)

	run, err := a.buildRunContext()
	if err != nil {
		return stats, err
	}

	var state *IngestionState
	if opts.Incremental {
		if state, err = a.store.GetIngestionState(SourceCursor); err != nil {
			return stats, err
		}
	}

	total, err := a.global.CountComposers()
	if err != nil {
		return stats, err
	}
	LogInfo("Found %d conversations to consider", total)

	var maxSeen time.Time
	var maxSeenID string
	observe := func(composerID string, ts time.Time) {
		if !ts.IsZero() && ts.After(maxSeen) {
			maxSeen = ts
			maxSeenID = composerID
		}
	}

	processed := 0
	var abort error
	err = a.global.ForEachComposer(func(composer *RawComposer) bool {
		processed++
		if opts.Progress != nil && (processed%progressInterval == 0 || processed == total) {
			opts.Progress(composer.ComposerID, processed, total)
		}

		skip, ts, err := a.shouldSkip(composer, state, opts)
		if err != nil {
			abort = err
			return false
		}
		observe(composer.ComposerID, ts)
		if skip {
			stats.Skipped++
			return true
		}

		chat, err := a.convertComposer(composer, run, &stats)
		if err != nil {
			var storageErr *StorageError
			if errors.As(err, &storageErr) {
				abort = err
				return false
			}
			LogError("Error converting conversation %s: %v", composer.ComposerID, err)
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
		observe(composer.ComposerID, chat.LastUpdatedAt)
		return true
	})
	if err != nil {
		return stats, err
	}
	if abort != nil {
		return stats, abort
	}

	newState := &IngestionState{
		Source:                 SourceCursor,
		LastRunAt:              time.Now(),
		LastProcessedTimestamp: maxSeen,
		LastID:                 maxSeenID,
		Stats:                  stats,
	}
	// Never move the watermark backwards
	if state != nil && state.LastProcessedTimestamp.After(maxSeen) {
		newState.LastProcessedTimestamp = state.LastProcessedTimestamp
		newState.LastID = state.LastID
	}
	if err := a.store.UpdateIngestionState(newState); err != nil {
		return stats, err
	}

	LogInfo("Ingestion complete: %d ingested (%d new, %d updated), %d skipped, %d errors, %d inferred workspaces",
		stats.Ingested, stats.New, stats.Updated, stats.Skipped, stats.Errors, stats.InferredWorkspaces)
	return stats, nil
}

// runContext holds the lookup maps and caches scoped to one ingestion pass
type runContext struct {
	workspaceIDByComposer map[string]int64
	headByComposer        map[string]ComposerHead
	inferrer              *WorkspaceInferrer
	inferredIDs           map[string]int64
}

// buildRunContext reads workspace metadata once and builds the three lookup
// maps: hash to local workspace row, composer to workspace, composer to head.
func (a *Aggregator) buildRunContext() (*runContext, error) {
	metas, err := a.workspaces.ReadAll()
	if err != nil {
		return nil, err
	}

	run := &runContext{
		workspaceIDByComposer: make(map[string]int64),
		headByComposer:        make(map[string]ComposerHead),
		inferrer:              NewWorkspaceInferrer(),
		inferredIDs:           make(map[string]int64),
	}

	for hash, meta := range metas {
		wsID, err := a.store.UpsertWorkspace(&Workspace{
			Hash:         hash,
			FolderURI:    meta.FolderURI,
			ResolvedPath: meta.ResolvedPath,
		})
		if err != nil {
			return nil, err
		}
		for _, head := range meta.Heads {
			if head.ComposerID == "" {
				continue
			}
			run.workspaceIDByComposer[head.ComposerID] = wsID
			run.headByComposer[head.ComposerID] = head
		}
	}
	return run, nil
}

// shouldSkip applies the incremental watermark. A conversation with no
// timestamp anywhere and no prior local row is treated as new; one with no
// timestamp but an existing row is skipped unless ReingestUntimestamped.
func (a *Aggregator) shouldSkip(composer *RawComposer, state *IngestionState, opts IngestOptions) (bool, time.Time, error) {
	ts := fromMillis(composer.BestUpdatedAt())
	if !opts.Incremental || state == nil {
		return false, ts, nil
	}

	if ts.IsZero() {
		prior, err := a.store.GetChatByComposerID(composer.ComposerID)
		if err != nil {
			return false, ts, err
		}
		if prior == nil {
			return false, ts, nil
		}
		ts = prior.LastUpdatedAt
		if ts.IsZero() {
			if opts.ReingestUntimestamped {
				return false, ts, nil
			}
			LogWarn("Conversation %s has no timestamp and an existing row; skipping (use ReingestUntimestamped to force)", composer.ComposerID)
			return true, ts, nil
		}
	}

	return !ts.After(state.LastProcessedTimestamp), ts, nil
}

// convertComposer normalizes one raw conversation into a Chat
func (a *Aggregator) convertComposer(composer *RawComposer, run *runContext, stats *IngestStats) (*Chat, error) {
	if composer.ComposerID == "" {
		return nil, &ConvertError{Err: errors.New("missing composer id")}
	}

	workspaceID, err := a.resolveWorkspace(composer, run, stats)
	if err != nil {
		return nil, err
	}

	bubbles := composer.Conversation
	if len(bubbles) == 0 && len(composer.FullConversationHeadersOnly) > 0 {
		if bubbles, err = ResolveHeaders(a.global, composer.ComposerID, composer.FullConversationHeadersOnly); err != nil {
			return nil, err
		}
	}

	// Zero-valued head when the workspace metadata never saw this composer
	head := run.headByComposer[composer.ComposerID]

	chat := &Chat{
		ComposerID:  composer.ComposerID,
		WorkspaceID: workspaceID,
		Source:      SourceCursor,
	}

	// Workspace-head metadata beats the source-native fields when present
	chat.Title = firstNonEmpty(head.Name, head.Subtitle, composer.Name, composer.Subtitle, "Untitled Chat")
	chat.Mode = ParseChatMode(firstNonEmpty(head.ForceMode, head.UnifiedMode, composer.ForceMode, composer.UnifiedMode))

	createdMs := head.CreatedAt
	if createdMs == 0 {
		createdMs = composer.CreatedAt
	}
	updatedMs := head.LastUpdatedAt
	if updatedMs == 0 {
		updatedMs = composer.LastUpdatedAt
	}
	chat.CreatedAt = fromMillis(createdMs)
	chat.LastUpdatedAt = fromMillis(updatedMs)

	seenFiles := make(map[string]bool)
	for _, bubble := range bubbles {
		role, ok := roleForType(bubble.Type)
		if !ok {
			continue
		}
		msgTime := fromMillis(bubble.CreatedAt)
		if msgTime.IsZero() {
			// Degrade to the chat's own timestamp so ordering holds
			msgTime = chat.CreatedAt
		}
		text := bubble.Text
		msgType := ClassifyBubble(bubble)
		if text == "" && bubble.RichText != "" {
			// Some bubbles only carry the editor's rich text document
			if recovered := ExtractRichText(bubble.RichText); recovered != "" {
				text = recovered
				if msgType == TypeEmpty {
					msgType = TypeResponse
				}
			}
		}
		chat.Messages = append(chat.Messages, Message{
			Role:      role,
			Text:      text,
			RichText:  bubble.RichText,
			CreatedAt: msgTime,
			BubbleID:  bubble.BubbleID,
			RawJSON:   bubble.Raw,
			Type:      msgType,
		})
		for _, path := range bubble.RelevantFiles {
			if path != "" && !seenFiles[path] {
				seenFiles[path] = true
				chat.RelevantFiles = append(chat.RelevantFiles, path)
			}
		}
	}

	sort.SliceStable(chat.Messages, func(i, j int) bool {
		return chat.Messages[i].CreatedAt.Before(chat.Messages[j].CreatedAt)
	})

	return chat, nil
}

// resolveWorkspace looks the composer up in the workspace map and falls back
// to path inference. Each distinct inferred root becomes (or reuses) a
// hash-less workspace row, created at most once per run.
func (a *Aggregator) resolveWorkspace(composer *RawComposer, run *runContext, stats *IngestStats) (int64, error) {
	if wsID, ok := run.workspaceIDByComposer[composer.ComposerID]; ok {
		return wsID, nil
	}

	root := run.inferrer.InferRoot(composer)
	if root == "" {
		return 0, nil
	}
	if wsID, ok := run.inferredIDs[root]; ok {
		return wsID, nil
	}

	wsID, err := a.store.UpsertInferredWorkspace(root, "")
	if err != nil {
		return 0, err
	}
	run.inferredIDs[root] = wsID
	stats.InferredWorkspaces++
	return wsID, nil
}

// roleForType maps the numeric bubble type to a role; unknown types drop
func roleForType(t int) (MessageRole, bool) {
	switch t {
	case 1:
		return RoleUser, true
	case 2:
		return RoleAssistant, true
	default:
		return "", false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
