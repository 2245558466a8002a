package cmd

import (
	"testing"

	"github.com/iksnae/cursor-archive/internal"
)

func sampleStemChat(title string) *internal.Chat {
	return &internal.Chat{ID: 3, ComposerID: "comp-xyz", Title: title}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"ingest":        false,
		"list":          false,
		"show":          false,
		"search":        false,
		"workspaces":    false,
		"export":        false,
		"import-legacy": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "storage", "db"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag %q not defined", name)
		}
	}
}

func TestExportFileStemSanitizes(t *testing.T) {
	chat := sampleStemChat("My Chat: with / weird * chars")
	stem := exportFileStem(chat)
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			t.Fatalf("stem %q contains unsafe rune %q", stem, r)
		}
	}
}

func TestExportFileStemFallsBackToComposerID(t *testing.T) {
	chat := sampleStemChat("///")
	stem := exportFileStem(chat)
	if stem == "" {
		t.Fatal("stem is empty")
	}
}
