package internal

import (
	"testing"

	"github.com/iksnae/cursor-archive/testutil"
)

func TestForEachComposer(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "composerData:one", `{"name":"First","createdAt":1000}`)
	testutil.InsertKV(t, db, "composerData:two", `{"name":"Second","createdAt":2000}`)
	testutil.InsertKV(t, db, "bubbleId:one:b1", `{"type":1,"text":"hi"}`)
	testutil.InsertKV(t, db, "unrelatedKey", `{"noise":true}`)

	store := NewGlobalStore(db)

	seen := make(map[string]string)
	err := store.ForEachComposer(func(c *RawComposer) bool {
		seen[c.ComposerID] = c.Name
		return true
	})
	if err != nil {
		t.Fatalf("ForEachComposer() error = %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("saw %d composers, want 2: %v", len(seen), seen)
	}
	if seen["one"] != "First" || seen["two"] != "Second" {
		t.Errorf("unexpected composers: %v", seen)
	}
}

func TestForEachComposerHexKeys(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, EncodeStoreKeyHex("composerData:hexed"), `{"name":"Hexed"}`)

	store := NewGlobalStore(db)
	var got *RawComposer
	if err := store.ForEachComposer(func(c *RawComposer) bool {
		got = c
		return true
	}); err != nil {
		t.Fatalf("ForEachComposer() error = %v", err)
	}
	if got == nil || got.ComposerID != "hexed" {
		t.Fatalf("hex-keyed composer not decoded: %+v", got)
	}
}

func TestForEachComposerSkipsMalformed(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "composerData:good", `{"name":"Good"}`)
	testutil.InsertKV(t, db, "composerData:bad", `{corrupted`)

	store := NewGlobalStore(db)
	var ids []string
	if err := store.ForEachComposer(func(c *RawComposer) bool {
		ids = append(ids, c.ComposerID)
		return true
	}); err != nil {
		t.Fatalf("ForEachComposer() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "good" {
		t.Errorf("ids = %v, want only the parseable entry", ids)
	}
}

func TestForEachComposerEarlyStop(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "composerData:one", `{}`)
	testutil.InsertKV(t, db, "composerData:two", `{}`)

	store := NewGlobalStore(db)
	count := 0
	if err := store.ForEachComposer(func(c *RawComposer) bool {
		count++
		return false
	}); err != nil {
		t.Fatalf("ForEachComposer() error = %v", err)
	}
	if count != 1 {
		t.Errorf("callback ran %d times after returning false, want 1", count)
	}
}

func TestCountComposers(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "composerData:one", `{}`)
	testutil.InsertKV(t, db, EncodeStoreKeyHex("composerData:two"), `{}`)
	testutil.InsertKV(t, db, "bubbleId:one:b1", `{}`)

	store := NewGlobalStore(db)
	n, err := store.CountComposers()
	if err != nil {
		t.Fatalf("CountComposers() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountComposers() = %d, want 2", n)
	}
}

func TestReadComposer(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "composerData:abc", `{"name":"Target"}`)

	store := NewGlobalStore(db)
	composer, err := store.ReadComposer("abc")
	if err != nil {
		t.Fatalf("ReadComposer() error = %v", err)
	}
	if composer == nil || composer.Name != "Target" {
		t.Fatalf("ReadComposer() = %+v, want Target", composer)
	}

	missing, err := store.ReadComposer("nope")
	if err != nil {
		t.Fatalf("ReadComposer(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("ReadComposer(missing) = %+v, want nil", missing)
	}
}

func TestReadBubblesBatch(t *testing.T) {
	db := testutil.CreateGlobalStoreDB(t)
	testutil.InsertKV(t, db, "bubbleId:comp:a", `{"type":1,"text":"first"}`)
	testutil.InsertKV(t, db, EncodeStoreKeyHex("bubbleId:comp:b"), `{"type":2,"text":"second"}`)
	testutil.InsertKV(t, db, "bubbleId:other:a", `{"type":1,"text":"wrong composer"}`)

	store := NewGlobalStore(db)
	bubbles, err := store.ReadBubbles("comp", []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("ReadBubbles() error = %v", err)
	}
	if len(bubbles) != 2 {
		t.Fatalf("len(bubbles) = %d, want 2", len(bubbles))
	}
	if bubbles["a"].Text != "first" {
		t.Errorf("bubble a text = %q, want first", bubbles["a"].Text)
	}
	if bubbles["b"].Text != "second" {
		t.Errorf("hex-keyed bubble b text = %q, want second", bubbles["b"].Text)
	}
	if _, ok := bubbles["missing"]; ok {
		t.Error("missing bubble should be absent from the result")
	}
}
