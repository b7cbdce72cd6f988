package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"interview-quiz-service/internal/domain"
)

func entries(total, correct int) []SubmissionEntry {
	out := make([]SubmissionEntry, total)
	for i := range out {
		id := fmt.Sprintf("q%02d", i)
		out[i] = SubmissionEntry{QuestionID: id, Correct: correctFor(id)}
		if i < correct {
			out[i].Selected = "  " + correctFor(id) + " "
		}
	}
	return out
}

func TestScore(t *testing.T) {
	sub := Submission{AttemptID: "attempt-1", Entries: entries(30, 19), TotalExpected: 30, PassThreshold: 60}
	result, records := Score(sub)
	if result.Score != 19 || result.TotalQuestions != 30 {
		t.Fatalf("unexpected score %+v", result)
	}
	if result.Percentage != 63.33 || !result.Passed {
		t.Fatalf("expected 63.33%% passed, got %+v", result)
	}
	if len(records) != 30 {
		t.Fatalf("expected one record per presented question, got %d", len(records))
	}
	if records[25].SelectedAnswer != nil || records[25].IsCorrect {
		t.Fatalf("unanswered question should be recorded as null and incorrect")
	}
}

func TestScorePassUsesUnroundedPercentage(t *testing.T) {
	sub := Submission{AttemptID: "attempt-1", Entries: entries(3, 2), TotalExpected: 3, PassThreshold: 66.67}
	result, _ := Score(sub)
	if result.Percentage != 66.67 {
		t.Fatalf("expected stored percentage 66.67, got %v", result.Percentage)
	}
	if result.Passed {
		t.Fatalf("2 of 3 is below a 66.67 threshold")
	}

	sub.PassThreshold = 66.66
	if result, _ := Score(sub); !result.Passed {
		t.Fatalf("2 of 3 clears a 66.66 threshold")
	}
}

type flakyWriter struct {
	*fakeStore
	failCompletes int
}

func (w *flakyWriter) CompleteAttempt(ctx context.Context, id string, result domain.AttemptResult) error {
	if w.failCompletes > 0 {
		w.failCompletes--
		return errors.New("connection reset")
	}
	return w.fakeStore.CompleteAttempt(ctx, id, result)
}

func TestPipelineRetryDoesNotDuplicateAnswers(t *testing.T) {
	w := &flakyWriter{fakeStore: newFakeStore(nil, nil), failCompletes: 1}
	snaps := newMapSnapshots()
	_ = snaps.Save(context.Background(), "attempt-1", []byte("{}"))
	p := NewPipeline(w, snaps)
	sub := Submission{AttemptID: "attempt-1", Entries: entries(30, 30), TotalExpected: 30, PassThreshold: 60}

	if _, err := p.Submit(context.Background(), sub); err == nil {
		t.Fatalf("expected first submit to fail")
	}
	if !snaps.has("attempt-1") {
		t.Fatalf("snapshot must survive a failed submission")
	}
	result, err := p.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Score != 30 || result.Percentage != 100 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := len(w.answers["attempt-1"]); got != 30 {
		t.Fatalf("expected 30 answer records after retry, got %d", got)
	}
	if w.replaces != 2 || w.completes != 1 {
		t.Fatalf("unexpected write counts replaces=%d completes=%d", w.replaces, w.completes)
	}
	if snaps.has("attempt-1") {
		t.Fatalf("snapshot should be cleared after success")
	}
}

// lostAckWriter commits the completion but reports a failure.
type lostAckWriter struct {
	*fakeStore
	lost bool
}

func (w *lostAckWriter) CompleteAttempt(ctx context.Context, id string, result domain.AttemptResult) error {
	if err := w.fakeStore.CompleteAttempt(ctx, id, result); err != nil {
		return err
	}
	if !w.lost {
		w.lost = true
		return errors.New("connection reset")
	}
	return nil
}

func TestPipelineRetryAfterLostAcknowledgement(t *testing.T) {
	w := &lostAckWriter{fakeStore: newFakeStore(nil, nil)}
	snaps := newMapSnapshots()
	_ = snaps.Save(context.Background(), "attempt-1", []byte("{}"))
	p := NewPipeline(w, snaps)
	sub := Submission{AttemptID: "attempt-1", Entries: entries(30, 20), TotalExpected: 30, PassThreshold: 60}

	if _, err := p.Submit(context.Background(), sub); err == nil {
		t.Fatalf("expected first submit to report failure")
	}
	result, err := p.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("retry of a committed submission: %v", err)
	}
	if result.Score != 20 || !result.Passed {
		t.Fatalf("unexpected result %+v", result)
	}
	if w.replaces != 1 || w.completes != 1 {
		t.Fatalf("committed answers must not be rewritten: replaces=%d completes=%d", w.replaces, w.completes)
	}
	if snaps.has("attempt-1") {
		t.Fatalf("snapshot should be cleared once the attempt is completed")
	}
}
