package distribute

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	store := NewFileCredentialStore(path)

	want := Credentials{AccessToken: "act-abc", RefreshToken: "rft-xyz"}
	if err := store.Persist(want); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestFileCredentialStore_PreservesUnrelatedKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	seed := "OPENAI_API_KEY=sk-keep-me\nTIKTOK_ACCESS_TOKEN=old-a\nTIKTOK_REFRESH_TOKEN=old-r\n"
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileCredentialStore(path)
	if err := store.Persist(Credentials{AccessToken: "new-a", RefreshToken: "new-r"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "sk-keep-me") {
		t.Errorf("unrelated key lost:\n%s", content)
	}
	if strings.Contains(content, "old-a") || strings.Contains(content, "old-r") {
		t.Errorf("stale tokens survived:\n%s", content)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "new-a" || got.RefreshToken != "new-r" {
		t.Errorf("Load = %+v, want new pair", got)
	}
}

func TestFileCredentialStore_LoadRejectsMissingTokens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TIKTOK_ACCESS_TOKEN=only-half\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileCredentialStore(path).Load(); err == nil {
		t.Fatal("expected error for missing refresh token")
	}
}

func TestFileCredentialStore_PersistCreatesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := NewFileCredentialStore(path).Persist(Credentials{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the credentials file", len(entries))
	}
}
