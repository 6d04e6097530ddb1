package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveToken writes the auth token to the credentials file, creating the
// directory if needed. The file is readable only by the owner.
func SaveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// LoadToken reads the stored auth token. A missing file yields an empty
// token, not an error.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ClearToken removes the stored auth token if present.
func ClearToken(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
