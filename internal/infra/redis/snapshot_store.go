package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"interview-quiz-service/internal/domain"
)

// SnapshotStore keeps resume snapshots in Redis so a reload on another
// instance can pick the attempt up. Blobs expire after ttl.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Load(ctx context.Context, attemptID string) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.key(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	return blob, err
}

func (s *SnapshotStore) Save(ctx context.Context, attemptID string, blob []byte) error {
	return s.client.Set(ctx, s.key(attemptID), blob, s.ttl).Err()
}

func (s *SnapshotStore) Clear(ctx context.Context, attemptID string) error {
	return s.client.Del(ctx, s.key(attemptID)).Err()
}

func (s *SnapshotStore) key(attemptID string) string {
	return "quiz:snapshot:" + attemptID
}
