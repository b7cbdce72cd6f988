package memory

import (
	"context"
	"sync"

	"interview-quiz-service/internal/domain"
)

// SnapshotStore keeps resume snapshots in process memory.
type SnapshotStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{blobs: make(map[string][]byte)}
}

func (s *SnapshotStore) Load(_ context.Context, attemptID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[attemptID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *SnapshotStore) Save(_ context.Context, attemptID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[attemptID] = append([]byte(nil), blob...)
	return nil
}

func (s *SnapshotStore) Clear(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, attemptID)
	return nil
}
