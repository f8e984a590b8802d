package token

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SetTokens(ctx, "acc-1", "ref-1"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	if access != "acc-1" || refresh != "ref-1" {
		t.Fatalf("unexpected tokens: %q %q", access, refresh)
	}

	if err := store.SetAccessToken(ctx, "acc-2"); err != nil {
		t.Fatalf("set access: %v", err)
	}
	access, _ = store.AccessToken(ctx)
	refresh, _ = store.RefreshToken(ctx)
	if access != "acc-2" || refresh != "ref-1" {
		t.Fatal("SetAccessToken must not touch the refresh token")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	access, _ = store.AccessToken(ctx)
	refresh, _ = store.RefreshToken(ctx)
	if access != "" || refresh != "" {
		t.Fatal("expected empty tokens after clear")
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	store := NewFileStore(path)
	if err := store.SetTokens(ctx, "acc", "ref"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	reopened := NewFileStore(path)
	access, err := reopened.AccessToken(ctx)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	refresh, _ := reopened.RefreshToken(ctx)
	if access != "acc" || refresh != "ref" {
		t.Fatalf("unexpected tokens after reopen: %q %q", access, refresh)
	}
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)

	if err := store.SetTokens(ctx, "acc", "ref"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected token file removed")
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}

	access, err := store.AccessToken(ctx)
	if err != nil || access != "" {
		t.Fatalf("expected empty access token, got %q err %v", access, err)
	}
}

func TestFileStoreCorruptFileIsEmptySession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store := NewFileStore(path)
	access, err := store.AccessToken(ctx)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if access != "" {
		t.Fatalf("expected empty access token from corrupt file, got %q", access)
	}
}
