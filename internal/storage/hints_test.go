// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttl time.Duration) (*HintStore, *time.Time) {
	t.Helper()
	store, err := NewHintStoreWithDir(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestNewHintStoreWithDir_DefaultTTL(t *testing.T) {
	store, err := NewHintStoreWithDir(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if store.TTL != DefaultHintTTL {
		t.Errorf("TTL = %v, want %v", store.TTL, DefaultHintTTL)
	}
}

func TestHintStore_PutGet(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	if _, ok := store.Get("alice"); ok {
		t.Fatal("expected no hint before Put")
	}
	if err := store.Put("alice", true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	h, ok := store.Get("alice")
	if !ok || !h.ChatEnabled || h.UserID != "alice" {
		t.Errorf("Get = %+v, %v", h, ok)
	}
	if _, ok := store.Get("bob"); ok {
		t.Error("hint leaked across users")
	}
}

func TestHintStore_Overwrite(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	store.Put("alice", true)
	store.Put("alice", false)

	h, ok := store.Get("alice")
	if !ok || h.ChatEnabled {
		t.Errorf("expected overwritten hint, got %+v", h)
	}
}

func TestHintStore_Expires(t *testing.T) {
	store, now := newTestStore(t, time.Minute)
	store.Put("alice", true)

	*now = now.Add(2 * time.Minute)
	if _, ok := store.Get("alice"); ok {
		t.Error("expired hint returned")
	}
	if _, err := os.Stat(store.filePath("alice")); !os.IsNotExist(err) {
		t.Error("expired hint file not removed")
	}
}

func TestHintStore_CorruptFile(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	if err := os.WriteFile(store.filePath("alice"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("alice"); ok {
		t.Error("corrupt hint returned")
	}
}

func TestHintStore_FilePermissions(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	store.Put("alice@example.com/../x", true)

	path := store.filePath("alice@example.com/../x")
	if filepath.Dir(path) != store.BaseDir {
		t.Errorf("hint escaped base dir: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 && os.PathSeparator == '/' {
		t.Errorf("hint file mode = %v, want 0600", perm)
	}
}

func TestHintStore_DeleteAndClear(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	store.Put("alice", true)
	store.Put("bob", true)

	if err := store.Delete("alice"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("alice"); err != nil {
		t.Errorf("deleting a missing hint: %v", err)
	}
	if _, ok := store.Get("alice"); ok {
		t.Error("deleted hint returned")
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("bob"); ok {
		t.Error("hint survived Clear")
	}
}
