package store

import (
	"errors"
	"sync"

	"github.com/i474232898/reservoir-geojson/internal/reservoir"
)

var (
	// ErrNotFound is returned before the first successful build.
	ErrNotFound = errors.New("no reservoir document built yet")
)

// MemoryStore is a concurrency-safe in-memory history of build snapshots.
type MemoryStore struct {
	mu sync.RWMutex

	// oldest first
	snapshots []reservoir.Snapshot

	// retention configuration
	maxHistory int // max number of snapshots kept
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
	}
}

// Save appends a snapshot and enforces retention.
func (s *MemoryStore) Save(snapshot reservoir.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snapshot)

	if s.maxHistory > 0 && len(s.snapshots) > s.maxHistory {
		over := len(s.snapshots) - s.maxHistory
		s.snapshots = append([]reservoir.Snapshot(nil), s.snapshots[over:]...)
	}
}

// GetLatest returns the most recent snapshot.
func (s *MemoryStore) GetLatest() (reservoir.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return reservoir.Snapshot{}, ErrNotFound
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

// History returns the retained snapshots, newest first.
func (s *MemoryStore) History() []reservoir.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reservoir.Snapshot, 0, len(s.snapshots))
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		out = append(out, s.snapshots[i])
	}
	return out
}
