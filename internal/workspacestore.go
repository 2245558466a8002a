package internal

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ComposerHead is a conversation summary stored in a workspace database under
// composer.composerData
type ComposerHead struct {
	ComposerID    string `json:"composerId"`
	Name          string `json:"name,omitempty"`
	Subtitle      string `json:"subtitle,omitempty"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
	LastUpdatedAt int64  `json:"lastUpdatedAt,omitempty"`
	ForceMode     string `json:"forceMode,omitempty"`
	UnifiedMode   string `json:"unifiedMode,omitempty"`
}

// Mode resolves the head's chat mode: an explicit forced mode beats the last
// used mode, which beats the plain-chat default.
func (h ComposerHead) Mode() ChatMode {
	if h.ForceMode != "" {
		return ParseChatMode(h.ForceMode)
	}
	if h.UnifiedMode != "" {
		return ParseChatMode(h.UnifiedMode)
	}
	return ModeChat
}

// WorkspaceMeta is everything read from one workspaceStorage entry
type WorkspaceMeta struct {
	Hash         string
	FolderURI    string
	ResolvedPath string
	Heads        []ComposerHead
}

// WorkspaceStore reads per-workspace state databases under workspaceStorage/
type WorkspaceStore struct {
	basePath string
}

// NewWorkspaceStore creates a reader rooted at the workspaceStorage directory
func NewWorkspaceStore(basePath string) *WorkspaceStore {
	return &WorkspaceStore{basePath: basePath}
}

// ReadAll reads metadata from every workspace directory. A workspace that
// fails to open or parse is logged and omitted; it never aborts the others.
func (w *WorkspaceStore) ReadAll() (map[string]*WorkspaceMeta, error) {
	workspaces := make(map[string]*WorkspaceMeta)

	entries, err := os.ReadDir(w.basePath)
	if err != nil {
		LogWarn("Workspace storage not readable at %s: %v", w.basePath, err)
		return workspaces, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		hash := entry.Name()
		meta, err := w.readWorkspace(hash)
		if err != nil {
			LogWarn("Skipping workspace %s: %v", hash, err)
			continue
		}
		workspaces[hash] = meta
	}

	LogInfo("Read metadata from %d workspaces", len(workspaces))
	return workspaces, nil
}

func (w *WorkspaceStore) readWorkspace(hash string) (*WorkspaceMeta, error) {
	dir := filepath.Join(w.basePath, hash)
	meta := &WorkspaceMeta{Hash: hash}

	// Companion descriptor holds the declared root folder URI
	if data, err := os.ReadFile(filepath.Join(dir, "workspace.json")); err == nil {
		var descriptor struct {
			Folder string `json:"folder"`
		}
		if err := json.Unmarshal(data, &descriptor); err != nil {
			LogWarn("Failed to parse workspace.json for %s: %v", hash, err)
		} else {
			meta.FolderURI = descriptor.Folder
			meta.ResolvedPath = ResolveFolderURI(descriptor.Folder)
		}
	}

	dbPath := filepath.Join(dir, "state.vscdb")
	if _, err := os.Stat(dbPath); err != nil {
		// A descriptor-only workspace still contributes its path
		return meta, nil
	}

	db, err := OpenSourceDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var value []byte
	err = db.QueryRow("SELECT value FROM ItemTable WHERE key = 'composer.composerData'").Scan(&value)
	if err == nil {
		var composerData struct {
			AllComposers []ComposerHead `json:"allComposers"`
		}
		if err := json.Unmarshal(value, &composerData); err != nil {
			LogWarn("Failed to parse composer.composerData for %s: %v", hash, err)
		} else {
			meta.Heads = composerData.AllComposers
		}
	}

	return meta, nil
}

// ResolveFolderURI converts a declared folder URI (typically file://) into a
// local filesystem path. Non-URI values pass through unchanged.
func ResolveFolderURI(uri string) string {
	if uri == "" {
		return ""
	}
	if !strings.Contains(uri, "://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	p := u.Path
	// file:///C:/foo style Windows paths carry a leading slash
	if runtime.GOOS == "windows" && len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return p
}
