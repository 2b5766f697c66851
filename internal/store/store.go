package store

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrEmptyData   = errors.New("no data to persist")
	ErrInvalidData = errors.New("data is not JSON-serializable")
	ErrCorrupt     = errors.New("last-event slot is corrupt")
)

// LastEventStore holds the data payload of the most recently accepted
// webhook. One logical record; every save is a full overwrite.
//
// Save returns the content as re-read after writing, so callers observe
// exactly what a subsequent Load would. Load returns (nil, nil) before the
// first webhook arrives; that is the expected empty state, not an error.
type LastEventStore interface {
	Save(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error)
	Load(ctx context.Context) (map[string]interface{}, error)
}

// MemoryStore is the fallback when no slot file is configured. Used by tests
// and ephemeral deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	copied, err := roundTrip(data)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.data = copied
	m.mu.Unlock()
	return copied, nil
}

func (m *MemoryStore) Load(_ context.Context) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data, nil
}
