package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Store is the normalized local database: workspaces, chats, messages,
// chat-file associations, per-source ingestion watermarks, and an FTS5 index
// kept in sync by triggers.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the local store at path and ensures the schema
func OpenStore(path string) (*Store, error) {
	db, err := OpenLocalDatabase(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already open database handle, ensuring the schema.
// Used by tests with in-memory databases.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, path: ":memory:"}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_hash TEXT NOT NULL DEFAULT '',
		folder_uri TEXT,
		resolved_path TEXT,
		first_seen_at TEXT,
		last_seen_at TEXT
	)`,
	// A hash identifies a workspace when present; inferred workspaces have an
	// empty hash and are keyed by resolved path instead.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_workspaces_hash
		ON workspaces(workspace_hash) WHERE workspace_hash != ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_workspaces_inferred_path
		ON workspaces(resolved_path) WHERE workspace_hash = ''`,
	`CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		composer_id TEXT UNIQUE NOT NULL,
		workspace_id INTEGER,
		title TEXT,
		mode TEXT,
		created_at TEXT,
		last_updated_at TEXT,
		source TEXT DEFAULT 'cursor',
		messages_count INTEGER DEFAULT 0,
		FOREIGN KEY (workspace_id) REFERENCES workspaces(id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		text TEXT,
		rich_text TEXT,
		created_at TEXT,
		bubble_id TEXT,
		raw_json TEXT,
		message_type TEXT DEFAULT 'response',
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS chat_files (
		chat_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (chat_id, path),
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS ingestion_state (
		source TEXT PRIMARY KEY,
		last_run_at TEXT,
		last_processed_timestamp TEXT,
		last_id TEXT,
		stats_json TEXT
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS message_fts USING fts5(
		text,
		rich_text,
		content='messages',
		content_rowid='id'
	)`,
	// Synchronous triggers keep the FTS index exactly consistent with the
	// messages table; search must never lag an upsert.
	`CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
		INSERT INTO message_fts(rowid, text, rich_text)
		VALUES (new.id, new.text, new.rich_text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
		INSERT INTO message_fts(message_fts, rowid, text, rich_text)
		VALUES ('delete', old.id, old.text, old.rich_text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
		INSERT INTO message_fts(message_fts, rowid, text, rich_text)
		VALUES ('delete', old.id, old.text, old.rich_text);
		INSERT INTO message_fts(rowid, text, rich_text)
		VALUES (new.id, new.text, new.rich_text);
	END`,
	`CREATE INDEX IF NOT EXISTS idx_chats_workspace ON chats(workspace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(last_updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id)`,
}

func (s *Store) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return &StorageError{Path: s.path, Op: "open", Err: fmt.Errorf("schema: %w", err)}
		}
	}
	return nil
}

// formatTime stores timestamps as RFC3339 text; zero time maps to NULL
func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertWorkspace inserts or updates a hash-identified workspace row and
// returns its ID.
func (s *Store) UpsertWorkspace(ws *Workspace) (int64, error) {
	if ws.Hash == "" {
		return s.UpsertInferredWorkspace(ws.ResolvedPath, ws.FolderURI)
	}

	now := time.Now()
	var id int64
	err := s.db.QueryRow("SELECT id FROM workspaces WHERE workspace_hash = ?", ws.Hash).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.Exec(
			`INSERT INTO workspaces (workspace_hash, folder_uri, resolved_path, first_seen_at, last_seen_at)
			 VALUES (?, ?, ?, ?, ?)`,
			ws.Hash, ws.FolderURI, ws.ResolvedPath, formatTime(now), formatTime(now))
		if err != nil {
			return 0, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		return res.LastInsertId()
	case err != nil:
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}

	_, err = s.db.Exec(
		`UPDATE workspaces SET folder_uri = ?, resolved_path = ?, last_seen_at = ? WHERE id = ?`,
		ws.FolderURI, ws.ResolvedPath, formatTime(now), id)
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return id, nil
}

// UpsertInferredWorkspace creates or reuses a workspace row with an empty
// hash, keyed by resolved path. It never collides with a hash-identified row
// for the same path.
func (s *Store) UpsertInferredWorkspace(path, folderURI string) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("inferred workspace requires a path")
	}

	now := time.Now()
	var id int64
	err := s.db.QueryRow(
		"SELECT id FROM workspaces WHERE workspace_hash = '' AND resolved_path = ?", path).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.Exec(
			`INSERT INTO workspaces (workspace_hash, folder_uri, resolved_path, first_seen_at, last_seen_at)
			 VALUES ('', ?, ?, ?, ?)`,
			folderURI, path, formatTime(now), formatTime(now))
		if err != nil {
			return 0, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		return res.LastInsertId()
	case err != nil:
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}

	_, err = s.db.Exec("UPDATE workspaces SET last_seen_at = ? WHERE id = ?", formatTime(now), id)
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return id, nil
}

// ListWorkspaces returns all workspace rows
func (s *Store) ListWorkspaces() ([]*Workspace, error) {
	rows, err := s.db.Query(
		`SELECT id, workspace_hash, folder_uri, resolved_path, first_seen_at, last_seen_at
		 FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws := &Workspace{}
		var folderURI, resolvedPath, firstSeen, lastSeen sql.NullString
		if err := rows.Scan(&ws.ID, &ws.Hash, &folderURI, &resolvedPath, &firstSeen, &lastSeen); err != nil {
			return nil, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		ws.FolderURI = folderURI.String
		ws.ResolvedPath = resolvedPath.String
		ws.FirstSeenAt = parseTime(firstSeen)
		ws.LastSeenAt = parseTime(lastSeen)
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

// UpsertChat inserts or updates a chat and fully replaces its messages and
// file associations. The parent row keeps its identity across re-ingestion;
// children are delete-then-reinserted because source turn streams are not
// diff-able. Returns the chat ID and whether the row was newly created.
func (s *Store) UpsertChat(chat *Chat) (int64, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer tx.Rollback()

	var workspaceID interface{}
	if chat.WorkspaceID != 0 {
		workspaceID = chat.WorkspaceID
	}

	created := false
	var chatID int64
	err = tx.QueryRow("SELECT id FROM chats WHERE composer_id = ?", chat.ComposerID).Scan(&chatID)
	switch {
	case err == sql.ErrNoRows:
		created = true
		res, err := tx.Exec(
			`INSERT INTO chats (composer_id, workspace_id, title, mode, created_at, last_updated_at, source, messages_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			chat.ComposerID, workspaceID, chat.Title, string(chat.Mode),
			formatTime(chat.CreatedAt), formatTime(chat.LastUpdatedAt), chat.Source, len(chat.Messages))
		if err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		if chatID, err = res.LastInsertId(); err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
	case err != nil:
		return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
	default:
		_, err = tx.Exec(
			`UPDATE chats SET workspace_id = ?, title = ?, mode = ?, created_at = ?,
			 last_updated_at = ?, source = ?, messages_count = ? WHERE id = ?`,
			workspaceID, chat.Title, string(chat.Mode),
			formatTime(chat.CreatedAt), formatTime(chat.LastUpdatedAt), chat.Source, len(chat.Messages), chatID)
		if err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		if _, err = tx.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		if _, err = tx.Exec("DELETE FROM chat_files WHERE chat_id = ?", chatID); err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
	}

	for _, msg := range chat.Messages {
		var raw interface{}
		if len(msg.RawJSON) > 0 {
			raw = string(msg.RawJSON)
		}
		_, err = tx.Exec(
			`INSERT INTO messages (chat_id, role, text, rich_text, created_at, bubble_id, raw_json, message_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			chatID, string(msg.Role), msg.Text, msg.RichText,
			formatTime(msg.CreatedAt), msg.BubbleID, raw, string(msg.Type))
		if err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
	}

	for _, path := range chat.RelevantFiles {
		_, err = tx.Exec("INSERT OR IGNORE INTO chat_files (chat_id, path) VALUES (?, ?)", chatID, path)
		if err != nil {
			return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return chatID, created, nil
}

func scanChatRow(scan func(dest ...interface{}) error) (*Chat, error) {
	chat := &Chat{}
	var workspaceID sql.NullInt64
	var title, mode, createdAt, updatedAt, source sql.NullString
	if err := scan(&chat.ID, &chat.ComposerID, &workspaceID, &title, &mode,
		&createdAt, &updatedAt, &source, &chat.MessagesCount); err != nil {
		return nil, err
	}
	chat.WorkspaceID = workspaceID.Int64
	chat.Title = title.String
	chat.Mode = ChatMode(mode.String)
	chat.CreatedAt = parseTime(createdAt)
	chat.LastUpdatedAt = parseTime(updatedAt)
	chat.Source = source.String
	return chat, nil
}

const chatColumns = `id, composer_id, workspace_id, title, mode, created_at, last_updated_at, source, messages_count`

// GetChat returns a chat with its messages and file associations
func (s *Store) GetChat(id int64) (*Chat, error) {
	row := s.db.QueryRow("SELECT "+chatColumns+" FROM chats WHERE id = ?", id)
	chat, err := scanChatRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	if err := s.loadChatChildren(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChatByComposerID returns the chat row (without children) for a source
// conversation ID, or nil when unseen.
func (s *Store) GetChatByComposerID(composerID string) (*Chat, error) {
	row := s.db.QueryRow("SELECT "+chatColumns+" FROM chats WHERE composer_id = ?", composerID)
	chat, err := scanChatRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return chat, nil
}

func (s *Store) loadChatChildren(chat *Chat) error {
	rows, err := s.db.Query(
		`SELECT id, role, text, rich_text, created_at, bubble_id, raw_json, message_type
		 FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC`, chat.ID)
	if err != nil {
		return &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		msg := Message{ChatID: chat.ID}
		var role, text, richText, createdAt, bubbleID, rawJSON, msgType sql.NullString
		if err := rows.Scan(&msg.ID, &role, &text, &richText, &createdAt, &bubbleID, &rawJSON, &msgType); err != nil {
			return &StorageError{Path: s.path, Op: "query", Err: err}
		}
		msg.Role = MessageRole(role.String)
		msg.Text = text.String
		msg.RichText = richText.String
		msg.CreatedAt = parseTime(createdAt)
		msg.BubbleID = bubbleID.String
		if rawJSON.Valid {
			msg.RawJSON = []byte(rawJSON.String)
		}
		msg.Type = MessageType(msgType.String)
		chat.Messages = append(chat.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return &StorageError{Path: s.path, Op: "query", Err: err}
	}

	fileRows, err := s.db.Query("SELECT path FROM chat_files WHERE chat_id = ? ORDER BY path", chat.ID)
	if err != nil {
		return &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var path string
		if err := fileRows.Scan(&path); err != nil {
			return &StorageError{Path: s.path, Op: "query", Err: err}
		}
		chat.RelevantFiles = append(chat.RelevantFiles, path)
	}
	return fileRows.Err()
}

// ListOptions filter a chat listing
type ListOptions struct {
	WorkspaceID int64
	Source      string
	Limit       int
	Offset      int
}

// ListChats returns chat rows (without children), most recently created first
func (s *Store) ListChats(opts ListOptions) ([]*Chat, error) {
	var conditions []string
	var args []interface{}
	if opts.WorkspaceID != 0 {
		conditions = append(conditions, "workspace_id = ?")
		args = append(args, opts.WorkspaceID)
	}
	if opts.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, opts.Source)
	}

	query := "SELECT " + chatColumns + " FROM chats"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		chat, err := scanChatRow(rows.Scan)
		if err != nil {
			return nil, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// CountChats counts chats, optionally per workspace
func (s *Store) CountChats(workspaceID int64) (int, error) {
	var n int
	var err error
	if workspaceID != 0 {
		err = s.db.QueryRow("SELECT COUNT(*) FROM chats WHERE workspace_id = ?", workspaceID).Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&n)
	}
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return n, nil
}

// SearchResult is one full-text search hit
type SearchResult struct {
	Chat    *Chat
	Snippet string
}

// SearchChats runs an FTS5 query over message text and returns matching chats
// with a highlighted snippet from the best-ranked message. snippet() and rank
// only work in a plain match query, so the rank-ordered message hits are
// collapsed to one chat per hit here rather than with GROUP BY.
func (s *Store) SearchChats(query string, limit, offset int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT m.chat_id, snippet(message_fts, 0, '[', ']', '…', 12)
		 FROM message_fts
		 JOIN messages m ON m.id = message_fts.rowid
		 WHERE message_fts MATCH ?
		 ORDER BY rank`, query)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	// The first hit per chat carries its best-ranked snippet
	var chatIDs []int64
	snippets := make(map[int64]string)
	for rows.Next() {
		var chatID int64
		var snippet sql.NullString
		if err := rows.Scan(&chatID, &snippet); err != nil {
			return nil, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		if _, seen := snippets[chatID]; seen {
			continue
		}
		snippets[chatID] = snippet.String
		chatIDs = append(chatIDs, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}

	if offset >= len(chatIDs) {
		return nil, nil
	}
	chatIDs = chatIDs[offset:]
	if len(chatIDs) > limit {
		chatIDs = chatIDs[:limit]
	}

	var results []SearchResult
	for _, chatID := range chatIDs {
		row := s.db.QueryRow("SELECT "+chatColumns+" FROM chats WHERE id = ?", chatID)
		chat, err := scanChatRow(row.Scan)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, &StorageError{Path: s.path, Op: "query", Err: err}
		}
		results = append(results, SearchResult{Chat: chat, Snippet: snippets[chatID]})
	}
	return results, nil
}

// DeleteEmptyChats removes chats that ended up with no messages
func (s *Store) DeleteEmptyChats() (int64, error) {
	res, err := s.db.Exec("DELETE FROM chats WHERE messages_count = 0")
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return res.RowsAffected()
}

// IngestionState is the per-source incremental watermark
type IngestionState struct {
	Source                 string
	LastRunAt              time.Time
	LastProcessedTimestamp time.Time
	LastID                 string
	Stats                  IngestStats
}

// GetIngestionState returns the watermark for a source, or nil when the
// source has never completed a run.
func (s *Store) GetIngestionState(source string) (*IngestionState, error) {
	row := s.db.QueryRow(
		`SELECT last_run_at, last_processed_timestamp, last_id, stats_json
		 FROM ingestion_state WHERE source = ?`, source)

	var lastRun, lastProcessed, lastID, statsJSON sql.NullString
	err := row.Scan(&lastRun, &lastProcessed, &lastID, &statsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}

	state := &IngestionState{
		Source:                 source,
		LastRunAt:              parseTime(lastRun),
		LastProcessedTimestamp: parseTime(lastProcessed),
		LastID:                 lastID.String,
	}
	if statsJSON.Valid && statsJSON.String != "" {
		if err := json.Unmarshal([]byte(statsJSON.String), &state.Stats); err != nil {
			LogWarn("Failed to parse stored stats for source %s: %v", source, err)
		}
	}
	return state, nil
}

// UpdateIngestionState overwrites the watermark row for a source
func (s *Store) UpdateIngestionState(state *IngestionState) error {
	statsJSON, err := json.Marshal(state.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO ingestion_state (source, last_run_at, last_processed_timestamp, last_id, stats_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
		   last_run_at = excluded.last_run_at,
		   last_processed_timestamp = excluded.last_processed_timestamp,
		   last_id = excluded.last_id,
		   stats_json = excluded.stats_json`,
		state.Source, formatTime(state.LastRunAt), formatTime(state.LastProcessedTimestamp),
		state.LastID, string(statsJSON))
	if err != nil {
		return &StorageError{Path: s.path, Op: "query", Err: err}
	}
	return nil
}
