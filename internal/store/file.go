package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the slot as one pretty-printed JSON document. No
// locking: the app service serializes writers, and a crash mid-write is
// surfaced by the round-trip check or by ErrCorrupt on the next Load rather
// than lost silently.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Save(_ context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	if err := os.WriteFile(f.path, b, 0o644); err != nil {
		return nil, fmt.Errorf("write slot file: %w", err)
	}

	// Read back what hit the disk; a write that does not round-trip is an
	// error, not a success with a corrupt slot.
	written, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read back slot file: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(written, &out); err != nil {
		return nil, fmt.Errorf("%w: round-trip check failed: %v", ErrCorrupt, err)
	}
	return out, nil
}

func (f *FileStore) Load(_ context.Context) (map[string]interface{}, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

func roundTrip(data map[string]interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: round-trip check failed: %v", ErrCorrupt, err)
	}
	return out, nil
}
