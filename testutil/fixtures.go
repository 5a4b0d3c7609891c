package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteRawFile writes data below root, creating parent directories. It is
// used to plant files the store itself would never write.
func WriteRawFile(t *testing.T, root string, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", rel, err)
	}
	return path
}

// CreateMalformedStep plants an undecodable step file in a session
func CreateMalformedStep(t *testing.T, root, sessionID string) string {
	t.Helper()
	return WriteRawFile(t, root, filepath.Join(sessionID, "steps", "2000-01-01T00-00-00.000000000Z-broken.json"), []byte("{not json"))
}

// CreateSessionDir creates an empty session directory with no metadata
func CreateSessionDir(t *testing.T, root, sessionID string) string {
	t.Helper()
	dir := filepath.Join(root, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create session directory: %v", err)
	}
	return dir
}

// CountFiles returns the number of regular files directly inside dir
func CountFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}
