package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview-quiz-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	store := &countingStore{Store: seededStore()}
	cache := NewQuestionCache(store, time.Minute)
	filter := domain.QuestionFilter{CriteriaID: "crit-1"}

	qs, err := cache.Questions(context.Background(), filter)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 active questions, got %d", len(qs))
	}
	if store.calls != 1 {
		t.Fatalf("expected store once, got %d", store.calls)
	}

	qs[0].Options[0] = "mutated"
	again, err := cache.Questions(context.Background(), filter)
	if err != nil {
		t.Fatalf("questions 2: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls %d", store.calls)
	}
	if again[0].Options[0] == "mutated" {
		t.Fatalf("cached questions must not share option slices with callers")
	}

	cache.Invalidate("crit-1")
	if _, err := cache.Questions(context.Background(), filter); err != nil {
		t.Fatalf("questions 3: %v", err)
	}
	if store.calls != 2 {
		t.Fatalf("expected reload after invalidate, store calls %d", store.calls)
	}
}

func TestStoreDriveOverrideMatchesDay(t *testing.T) {
	store := seededStore()
	day := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	store.AddDriveOverride(domain.DriveOverride{CriteriaID: "crit-1", Day: day, TimeLimitMinutes: 45})

	o, err := store.DriveOverride(context.Background(), "crit-1", day.Add(6*time.Hour))
	if err != nil || o == nil || o.TimeLimitMinutes != 45 {
		t.Fatalf("expected override for same day, got %+v err=%v", o, err)
	}
	o, err = store.DriveOverride(context.Background(), "crit-1", day.Add(24*time.Hour))
	if err != nil || o != nil {
		t.Fatalf("expected no override next day, got %+v err=%v", o, err)
	}
}

func TestStoreCompleteAttemptIsTerminal(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	store.FailWrites(errors.New("offline"))
	if err := store.CompleteAttempt(ctx, "attempt-1", domain.AttemptResult{Score: 1}); err == nil {
		t.Fatalf("expected injected failure")
	}
	store.FailWrites(nil)

	if err := store.CompleteAttempt(ctx, "attempt-1", domain.AttemptResult{Score: 2, Reason: domain.ReasonManual}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.CompleteAttempt(ctx, "attempt-1", domain.AttemptResult{Score: 5}); err != nil {
		t.Fatalf("complete again: %v", err)
	}
	a, _ := store.Attempt(ctx, "attempt-1")
	if a.Status != domain.AttemptCompleted || a.Score != 2 {
		t.Fatalf("expected first completion to stick, got %+v", a)
	}
	if store.Writes() != 1 {
		t.Fatalf("expected one successful write, got %d", store.Writes())
	}
}

func TestStoreReplaceAnswersRefusesCompletedAttempt(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	first := []domain.AnswerRecord{{AttemptID: "attempt-1", QuestionID: "q1", IsCorrect: true}}

	if err := store.ReplaceAnswers(ctx, "attempt-1", first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.CompleteAttempt(ctx, "attempt-1", domain.AttemptResult{Score: 1}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	late := []domain.AnswerRecord{{AttemptID: "attempt-1", QuestionID: "q2"}}
	if err := store.ReplaceAnswers(ctx, "attempt-1", late); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected ErrAttemptCompleted, got %v", err)
	}
	if got := store.Answers("attempt-1"); len(got) != 1 || got[0].QuestionID != "q1" {
		t.Fatalf("completed answers were rewritten: %+v", got)
	}
	if err := store.ReplaceAnswers(ctx, "missing", late); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

type countingStore struct {
	*Store
	calls int
}

func (s *countingStore) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.calls++
	return s.Store.Questions(ctx, filter)
}

func seededStore() *Store {
	store := NewStore()
	store.AddCriteria(domain.Criteria{ID: "crit-1", Name: "Backend", PassThreshold: 60, Active: true})
	store.AddAttempt(domain.Attempt{ID: "attempt-1", CriteriaID: "crit-1"})
	store.AddQuestions(
		domain.Question{ID: "q1", CriteriaID: "crit-1", Text: "2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Active: true},
		domain.Question{ID: "q2", CriteriaID: "crit-1", Text: "3 + 3?", Options: []string{"5", "6", "7"}, CorrectAnswer: "6", Active: true},
		domain.Question{ID: "q3", CriteriaID: "crit-1", Text: "retired", Options: []string{"a", "b", "c"}, CorrectAnswer: "a"},
	)
	return store
}
