package internal

import (
	"errors"
	"fmt"
)

// ErrIngestRunning is returned when Ingest is invoked while another pass is
// still in flight on the same aggregator.
var ErrIngestRunning = errors.New("ingestion already running")

// StorageError represents errors accessing storage files or databases
type StorageError struct {
	Path string
	Op   string // "open", "read", "query"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding a single source entry
type ParseError struct {
	Source string // "globalStorage", "workspaceStorage", "claude", "legacy"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConvertError represents a per-conversation conversion failure inside the
// aggregator loop. It is counted, never propagated.
type ConvertError struct {
	ComposerID string
	Err        error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert error [%s]: %v", e.ComposerID, e.Err)
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
