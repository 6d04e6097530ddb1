package config

import (
	"path/filepath"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials")

	tok, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if tok != "" {
		t.Fatalf("expected empty token, got %q", tok)
	}

	if err := SaveToken(path, "abc123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err = LoadToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok != "abc123" {
		t.Fatalf("unexpected token %q", tok)
	}

	if err := ClearToken(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ClearToken(path); err != nil {
		t.Fatalf("clear again: %v", err)
	}
	tok, err = LoadToken(path)
	if err != nil || tok != "" {
		t.Fatalf("expected cleared token, got %q err %v", tok, err)
	}
}
