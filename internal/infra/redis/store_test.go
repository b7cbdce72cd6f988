package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"interview-quiz-service/internal/domain"
	"interview-quiz-service/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{Store: seededStore()}
	cache := NewQuestionCache(newClient(mr), store, time.Minute)
	filter := domain.QuestionFilter{CriteriaID: "crit-1"}

	qs, err := cache.Questions(context.Background(), filter)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(qs) != 1 || store.calls != 1 {
		t.Fatalf("expected one question from one load, got %d/%d", len(qs), store.calls)
	}

	// Second call should hit cache, store not incremented.
	qs, _ = cache.Questions(context.Background(), filter)
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if qs[0].CorrectAnswer != "4" || len(qs[0].Options) != 3 {
		t.Fatalf("cached question lost fields: %+v", qs[0])
	}
	if ttl := mr.TTL("quiz:questions:crit-1:"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if err := cache.Invalidate(context.Background(), "crit-1", ""); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.Questions(context.Background(), filter)
	if store.calls != 2 {
		t.Fatalf("expected reload after invalidate, store calls=%d", store.calls)
	}
}

func TestSnapshotStoreRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	snaps := NewSnapshotStore(newClient(mr), time.Hour)
	if _, err := snaps.Load(ctx, "attempt-1"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := snaps.Save(ctx, "attempt-1", []byte(`{"currentIndex":10}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	blob, err := snaps.Load(ctx, "attempt-1")
	if err != nil || string(blob) != `{"currentIndex":10}` {
		t.Fatalf("load: %q %v", blob, err)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := snaps.Load(ctx, "attempt-1"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected snapshot to expire, got %v", err)
	}

	_ = snaps.Save(ctx, "attempt-1", []byte(`{}`))
	if err := snaps.Clear(ctx, "attempt-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:snapshot:attempt-1") {
		t.Fatalf("expected snapshot key removed")
	}
}

type countingStore struct {
	*memory.Store
	calls int
}

func (s *countingStore) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.calls++
	return s.Store.Questions(ctx, filter)
}

func seededStore() *memory.Store {
	store := memory.NewStore()
	store.AddCriteria(domain.Criteria{ID: "crit-1", PassThreshold: 60, Active: true})
	store.AddQuestions(domain.Question{
		ID:            "q1",
		CriteriaID:    "crit-1",
		Text:          "What is 2 + 2?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: "4",
		Active:        true,
	})
	return store
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
