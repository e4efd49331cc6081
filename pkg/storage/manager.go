package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"xreposters/pkg/models"
)

// Manager persists collection results as JSON files under a base directory
type Manager struct {
	baseDir string
	mu      sync.Mutex
}

// NewManager creates a storage manager rooted at baseDir
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: baseDir}
}

// Path resolves name against the base directory; absolute names are kept
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.baseDir, name)
}

// SaveResult writes result to name, creating directories as needed. The
// file is replaced atomically so readers never see a partial document.
func (m *Manager) SaveResult(name string, result models.Result) (string, error) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, result); err != nil {
		return "", err
	}

	path := m.Path(name)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// LoadResult reads a result file written by SaveResult
func LoadResult(path string) (models.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to read result file: %w", err)
	}

	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return models.Result{}, fmt.Errorf("failed to parse result file %s: %w", path, err)
	}
	return models.NewResult(result.Users), nil
}

// WriteResult encodes result as indented UTF-8 JSON
func WriteResult(w io.Writer, result models.Result) error {
	return Encode(w, models.NewResult(result.Users))
}

// Encode writes v as indented JSON without HTML escaping, so non-ASCII
// names and "&" in bios stay readable.
func Encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
