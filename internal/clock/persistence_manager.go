package clock

import (
	"context"
	"sync"
)

// SnapshotStore persists the single run snapshot under a fixed key.
// LoadSnapshot returns ErrSnapshotNotFound when nothing has been saved and an
// error wrapping ErrCorruptSnapshot when the stored record cannot be decoded.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	Close() error
}

// MemoryStore keeps the encoded snapshot in process memory. It is used when
// no durable store is configured and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	fields map[string]string
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = snap.Fields()
	return nil
}

func (s *MemoryStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fields == nil {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return ParseSnapshot(s.fields)
}

// SetFields replaces the stored record verbatim.
func (s *MemoryStore) SetFields(fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fields
}

func (s *MemoryStore) Close() error {
	return nil
}
