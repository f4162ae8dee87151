// Package history records every command sent to the light.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/supercycler/internal/logic"
)

// Entry is one command attempt.
type Entry struct {
	At    time.Time   `json:"at"`
	State logic.State `json:"state"`
	Mode  string      `json:"mode"`
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
}

// Store persists command entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// Memory keeps the most recent entries in memory.
// It is used when no database is configured, and in tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewMemory creates a Memory store holding at most limit entries.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 100
	}
	return &Memory{limit: limit}
}

// Append records e, evicting the oldest entry when full.
func (m *Memory) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (m *Memory) Recent(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
