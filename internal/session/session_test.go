package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFileStoreGet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")
	store := NewFileStore(path, "", "", zap.NewNop())

	cookie, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	if cookie != nil {
		t.Fatalf("expected no cookie for missing file, got %+v", cookie)
	}

	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cookie, _ := store.Get(context.Background()); cookie != nil {
		t.Fatalf("expected no cookie for blank file, got %+v", cookie)
	}

	if err := os.WriteFile(path, []byte("token-value\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cookie, err = store.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cookie == nil || cookie.Value != "token-value" {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if cookie.Origin != DefaultOrigin || cookie.Name != DefaultName {
		t.Fatalf("expected default origin and name, got %+v", cookie)
	}
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")
	store := NewFileStore(path, "", "", zap.NewNop())

	sub, err := store.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path, []byte("token"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-sub.Changes():
	case <-time.After(5 * time.Second):
		t.Fatalf("expected change notification")
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	for range sub.Changes() {
	}
}

func TestStaticStore(t *testing.T) {
	store := NewStatic("")
	if cookie, _ := store.Get(context.Background()); cookie != nil {
		t.Fatalf("expected no cookie, got %+v", cookie)
	}

	sub, err := store.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	store.Set("abc")
	store.Set("def")

	select {
	case <-sub.Changes():
	default:
		t.Fatalf("expected a coalesced change notification")
	}

	cookie, _ := store.Get(context.Background())
	if cookie == nil || cookie.Value != "def" {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Changes after close must not reach the closed subscription.
	store.Set("")
	if _, ok := <-sub.Changes(); ok {
		t.Fatalf("expected closed channel")
	}
}
