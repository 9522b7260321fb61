package dataset

import (
	"context"
	"sync"

	"github.com/use-agent/ratewalk/models"
)

// Memory keeps entries in memory. It is safe for concurrent use, so an API
// job can report progress while its walk is still writing.
type Memory struct {
	mu      sync.RWMutex
	entries []*models.Entry
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(_ context.Context, entry *models.Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a snapshot of the stored entries.
func (m *Memory) Entries() []*models.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*models.Entry(nil), m.entries...)
}
