package internal

import (
	"testing"
)

func TestDecodeStoreKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain key", "composerData:abc-123", "composerData:abc-123"},
		{"hex key", EncodeStoreKeyHex("composerData:abc-123"), "composerData:abc-123"},
		{"hex bubble key", EncodeStoreKeyHex("bubbleId:c1:b1"), "bubbleId:c1:b1"},
		{"not hex, no colon", "zzzz", "zzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeStoreKey(tt.key); got != tt.want {
				t.Errorf("DecodeStoreKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseRawComposer(t *testing.T) {
	value := []byte(`{"name":"My Chat","createdAt":1700000000000,"unifiedMode":"agent"}`)

	composer, err := ParseRawComposer("composerData:abc-123", value)
	if err != nil {
		t.Fatalf("ParseRawComposer() error = %v", err)
	}
	if composer.ComposerID != "abc-123" {
		t.Errorf("ComposerID = %q, want abc-123 (from key)", composer.ComposerID)
	}
	if composer.Name != "My Chat" {
		t.Errorf("Name = %q, want My Chat", composer.Name)
	}
	if composer.UnifiedMode != "agent" {
		t.Errorf("UnifiedMode = %q, want agent", composer.UnifiedMode)
	}
	if len(composer.Raw) == 0 {
		t.Error("Raw payload not preserved")
	}
}

func TestParseRawComposerHexKey(t *testing.T) {
	key := EncodeStoreKeyHex("composerData:hex-id")
	composer, err := ParseRawComposer(key, []byte(`{}`))
	if err != nil {
		t.Fatalf("ParseRawComposer() error = %v", err)
	}
	if composer.ComposerID != "hex-id" {
		t.Errorf("ComposerID = %q, want hex-id", composer.ComposerID)
	}
}

func TestParseRawComposerErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"wrong prefix", "bubbleId:c1:b1", `{}`},
		{"empty id", "composerData:", `{}`},
		{"bad json", "composerData:abc", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRawComposer(tt.key, []byte(tt.value)); err == nil {
				t.Error("ParseRawComposer() expected error, got nil")
			}
		})
	}
}

func TestParseRawBubble(t *testing.T) {
	value := []byte(`{"type":1,"text":"hello","createdAt":1700000000000}`)

	bubble, err := ParseRawBubble("bubbleId:comp-1:bub-1", value)
	if err != nil {
		t.Fatalf("ParseRawBubble() error = %v", err)
	}
	if bubble.ComposerID != "comp-1" {
		t.Errorf("ComposerID = %q, want comp-1", bubble.ComposerID)
	}
	if bubble.BubbleID != "bub-1" {
		t.Errorf("BubbleID = %q, want bub-1", bubble.BubbleID)
	}
	if bubble.Type != 1 || bubble.Text != "hello" {
		t.Errorf("bubble fields = (%d, %q), want (1, hello)", bubble.Type, bubble.Text)
	}
}

func TestParseRawBubbleInvalidKey(t *testing.T) {
	if _, err := ParseRawBubble("bubbleId:onlyonepart", []byte(`{}`)); err == nil {
		t.Error("expected error for key without bubble id segment")
	}
}

func TestBestUpdatedAt(t *testing.T) {
	rc := &RawComposer{CreatedAt: 100, LastUpdatedAt: 200}
	if got := rc.BestUpdatedAt(); got != 200 {
		t.Errorf("BestUpdatedAt() = %d, want 200", got)
	}
	rc = &RawComposer{CreatedAt: 100}
	if got := rc.BestUpdatedAt(); got != 100 {
		t.Errorf("BestUpdatedAt() = %d, want createdAt fallback 100", got)
	}
	rc = &RawComposer{}
	if rc.HasTimestamp() {
		t.Error("HasTimestamp() = true for composer with no timestamps")
	}
}
