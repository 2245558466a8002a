package internal

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/cursor-archive/testutil"
)

// writeWorkspaceFixture builds one workspaceStorage/<hash>/ directory with a
// workspace.json and an ItemTable database.
func writeWorkspaceFixture(t *testing.T, base, hash, folderURI, composerData string) {
	t.Helper()
	dir := filepath.Join(base, hash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create workspace dir: %v", err)
	}
	if folderURI != "" {
		testutil.WriteFile(t, dir, "workspace.json", []byte(`{"folder":"`+folderURI+`"}`))
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.vscdb"))
	if err != nil {
		t.Fatalf("Failed to create state.vscdb: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value BLOB)"); err != nil {
		t.Fatalf("Failed to create ItemTable: %v", err)
	}
	if composerData != "" {
		if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES ('composer.composerData', ?)", composerData); err != nil {
			t.Fatalf("Failed to insert composer data: %v", err)
		}
	}
}

func TestReadAll(t *testing.T) {
	base := t.TempDir()
	writeWorkspaceFixture(t, base, "hash1", "file:///home/dev/projectA",
		`{"allComposers":[{"composerId":"c1","name":"Chat One","unifiedMode":"agent"},{"composerId":"c2"}]}`)
	writeWorkspaceFixture(t, base, "hash2", "file:///home/dev/projectB", "")

	store := NewWorkspaceStore(base)
	metas, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d, want 2", len(metas))
	}

	meta := metas["hash1"]
	if meta == nil {
		t.Fatal("hash1 missing from result")
	}
	if meta.ResolvedPath != "/home/dev/projectA" {
		t.Errorf("ResolvedPath = %q, want /home/dev/projectA", meta.ResolvedPath)
	}
	if len(meta.Heads) != 2 || meta.Heads[0].Name != "Chat One" {
		t.Errorf("heads = %+v, want two heads with Chat One first", meta.Heads)
	}
	if len(metas["hash2"].Heads) != 0 {
		t.Errorf("hash2 should have no heads, got %+v", metas["hash2"].Heads)
	}
}

func TestReadAllIsolatesFailures(t *testing.T) {
	base := t.TempDir()
	writeWorkspaceFixture(t, base, "good", "file:///home/dev/ok",
		`{"allComposers":[{"composerId":"c1"}]}`)

	// A directory whose state.vscdb is not a database at all
	badDir := filepath.Join(base, "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, badDir, "state.vscdb", []byte("this is not sqlite"))

	store := NewWorkspaceStore(base)
	metas, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if _, ok := metas["good"]; !ok {
		t.Error("healthy workspace missing; one bad workspace must not abort the rest")
	}
}

func TestReadAllMissingBase(t *testing.T) {
	store := NewWorkspaceStore(filepath.Join(t.TempDir(), "does-not-exist"))
	metas, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v, want graceful empty result", err)
	}
	if len(metas) != 0 {
		t.Errorf("len(metas) = %d, want 0", len(metas))
	}
}

func TestComposerHeadMode(t *testing.T) {
	tests := []struct {
		name string
		head ComposerHead
		want ChatMode
	}{
		{"force beats unified", ComposerHead{ForceMode: "edit", UnifiedMode: "agent"}, ModeEdit},
		{"unified fallback", ComposerHead{UnifiedMode: "agent"}, ModeAgent},
		{"default", ComposerHead{}, ModeChat},
		{"unknown mode normalizes", ComposerHead{ForceMode: "weird"}, ModeChat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.head.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveFolderURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"file uri", "file:///home/dev/project", "/home/dev/project"},
		{"escaped space", "file:///home/dev/my%20project", "/home/dev/my project"},
		{"plain path passes through", "/home/dev/project", "/home/dev/project"},
		{"empty", "", ""},
		{"non-file scheme", "vscode-remote://wsl/home/dev", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFolderURI(tt.uri); got != tt.want {
				t.Errorf("ResolveFolderURI(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}
