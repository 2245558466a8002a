package internal

import (
	"database/sql"
	"errors"
	"strings"
)

// GlobalStore reads composer conversations from the global state.vscdb
// cursorDiskKV table.
type GlobalStore struct {
	db *sql.DB
}

// NewGlobalStore creates a GlobalStore over an open database handle
func NewGlobalStore(db *sql.DB) *GlobalStore {
	return &GlobalStore{db: db}
}

// OpenGlobalStore opens the global database at the given path read-only
func OpenGlobalStore(path string) (*GlobalStore, *sql.DB, error) {
	db, err := OpenSourceDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	ok, err := tableExists(db, "cursorDiskKV")
	if err != nil {
		db.Close()
		return nil, nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	if !ok {
		db.Close()
		return nil, nil, &StorageError{Path: path, Op: "open", Err: errors.New("no cursorDiskKV table")}
	}
	return NewGlobalStore(db), db, nil
}

// prefixClause matches keys carrying the given prefix in either encoding
// observed in the wild: plain UTF-8 text or hex-encoded text.
func prefixClause(prefix string) (string, []interface{}) {
	return "(key LIKE ? OR key LIKE ?)", []interface{}{
		prefix + "%",
		EncodeStoreKeyHex(prefix) + "%",
	}
}

// ForEachComposer streams every composerData entry in a single pass, invoking
// fn per parsed composer. Returning false from fn stops the scan. Individual
// malformed keys or JSON values are logged and skipped; the scan itself only
// fails on a storage error.
func (g *GlobalStore) ForEachComposer(fn func(*RawComposer) bool) error {
	clause, args := prefixClause(ComposerKeyPrefix)
	rows, err := g.db.Query(
		"SELECT key, value FROM cursorDiskKV WHERE "+clause+" AND value IS NOT NULL", args...)
	if err != nil {
		return &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			LogWarn("Failed to scan composer row: %v", err)
			continue
		}
		composer, err := ParseRawComposer(key, value)
		if err != nil {
			LogWarn("Skipping composer entry %s: %v", key, err)
			continue
		}
		if !fn(composer) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	return nil
}

// CountComposers returns the number of composerData entries, used only for
// progress totals.
func (g *GlobalStore) CountComposers() (int, error) {
	clause, args := prefixClause(ComposerKeyPrefix)
	var n int
	err := g.db.QueryRow(
		"SELECT COUNT(*) FROM cursorDiskKV WHERE "+clause+" AND value IS NOT NULL", args...).Scan(&n)
	if err != nil {
		return 0, &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	return n, nil
}

// ReadComposer fetches a single composer by ID. Returns nil when not found.
func (g *GlobalStore) ReadComposer(composerID string) (*RawComposer, error) {
	key := ComposerKeyPrefix + composerID
	rows, err := g.db.Query(
		"SELECT key, value FROM cursorDiskKV WHERE key IN (?, ?) AND value IS NOT NULL",
		key, EncodeStoreKeyHex(key))
	if err != nil {
		return nil, &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		var value []byte
		if err := rows.Scan(&k, &value); err != nil {
			continue
		}
		composer, err := ParseRawComposer(k, value)
		if err != nil {
			LogWarn("Skipping composer entry %s: %v", k, err)
			continue
		}
		return composer, nil
	}
	return nil, rows.Err()
}

// ReadBubbles batch-fetches bubble bodies for one composer in a single query,
// avoiding an N+1 lookup when expanding headers-only conversations. Only
// found bubbles appear in the result.
func (g *GlobalStore) ReadBubbles(composerID string, bubbleIDs []string) (map[string]*RawBubble, error) {
	bubbles := make(map[string]*RawBubble)
	if len(bubbleIDs) == 0 {
		return bubbles, nil
	}

	keys := make([]interface{}, 0, len(bubbleIDs)*2)
	for _, id := range bubbleIDs {
		key := BubbleKeyPrefix + composerID + ":" + id
		keys = append(keys, key, EncodeStoreKeyHex(key))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	rows, err := g.db.Query(
		"SELECT key, value FROM cursorDiskKV WHERE key IN ("+placeholders+") AND value IS NOT NULL",
		keys...)
	if err != nil {
		return nil, &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			LogWarn("Failed to scan bubble row: %v", err)
			continue
		}
		bubble, err := ParseRawBubble(key, value)
		if err != nil {
			LogDebug("Skipping bubble entry %s: %v", key, err)
			continue
		}
		bubbles[bubble.BubbleID] = bubble
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: "cursorDiskKV", Op: "query", Err: err}
	}
	return bubbles, nil
}
