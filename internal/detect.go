package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// StoragePaths holds the detected paths for Cursor storage
type StoragePaths struct {
	WorkspaceStorage string // workspaceStorage directory
	GlobalStorage    string // globalStorage directory
	BasePath         string // base Cursor User directory
}

// DetectStoragePaths detects the Cursor storage paths for the current OS.
// An unsupported OS is the one fatal condition in the pipeline.
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var basePath string
	switch runtime.GOOS {
	case "darwin":
		basePath = filepath.Join(home, "Library/Application Support/Cursor/User")
	case "linux":
		basePath = filepath.Join(home, ".config/Cursor/User")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		basePath = filepath.Join(appData, "Cursor", "User")
	default:
		return StoragePaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return StoragePaths{
		WorkspaceStorage: filepath.Join(basePath, "workspaceStorage"),
		GlobalStorage:    filepath.Join(basePath, "globalStorage"),
		BasePath:         basePath,
	}, nil
}

// GetStoragePaths returns storage paths, honoring a custom base directory.
// The custom path may point either at the User directory or directly at a
// state.vscdb file's parent.
func GetStoragePaths(custom string) (StoragePaths, error) {
	if custom == "" {
		return DetectStoragePaths()
	}
	return StoragePaths{
		WorkspaceStorage: filepath.Join(custom, "workspaceStorage"),
		GlobalStorage:    filepath.Join(custom, "globalStorage"),
		BasePath:         custom,
	}, nil
}

// GlobalStorageDBPath returns the path to the globalStorage state.vscdb file
func (sp StoragePaths) GlobalStorageDBPath() string {
	return filepath.Join(sp.GlobalStorage, "state.vscdb")
}

// GlobalStorageExists checks if the globalStorage database exists
func (sp StoragePaths) GlobalStorageExists() bool {
	_, err := os.Stat(sp.GlobalStorageDBPath())
	return err == nil
}

// DefaultLocalDBPath returns the default location of the normalized local
// store, creating the parent directory if needed.
func DefaultLocalDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".cursor-archive")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "chats.db"), nil
}
