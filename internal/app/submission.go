package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"interview-quiz-service/internal/domain"
)

// Submission is the frozen answer snapshot handed to the pipeline.
// Retrying with the same Submission always yields the same result.
type Submission struct {
	AttemptID         string
	Entries           []SubmissionEntry
	TotalExpected     int
	PassThreshold     float64
	Reason            domain.SubmitReason
	DeviceFingerprint string
	CapturedAt        time.Time
}

// SubmissionEntry pairs a presented question with the candidate's answer.
type SubmissionEntry struct {
	QuestionID string
	// Selected is empty when the question was not answered.
	Selected string
	Correct  string
}

// Score computes per-question correctness and the aggregate result.
func Score(sub Submission) (domain.AttemptResult, []domain.AnswerRecord) {
	records := make([]domain.AnswerRecord, 0, len(sub.Entries))
	correct := 0
	for _, e := range sub.Entries {
		rec := domain.AnswerRecord{AttemptID: sub.AttemptID, QuestionID: e.QuestionID}
		if e.Selected != "" {
			selected := e.Selected
			rec.SelectedAnswer = &selected
			rec.IsCorrect = NormalizeAnswer(e.Selected) == NormalizeAnswer(e.Correct)
		}
		if rec.IsCorrect {
			correct++
		}
		records = append(records, rec)
	}

	// Pass/fail uses the exact ratio; only the stored percentage is rounded.
	raw := 0.0
	if sub.TotalExpected > 0 {
		raw = float64(correct) / float64(sub.TotalExpected) * 100
	}
	return domain.AttemptResult{
		Score:             correct,
		TotalQuestions:    sub.TotalExpected,
		Percentage:        math.Round(raw*100) / 100,
		Passed:            raw >= sub.PassThreshold,
		CompletedAt:       sub.CapturedAt,
		DeviceFingerprint: sub.DeviceFingerprint,
		Reason:            sub.Reason,
	}, records
}

// Pipeline persists a submission as one logical unit: answers are replaced
// first and the attempt is only marked completed after that succeeds.
type Pipeline struct {
	writer    ResultWriter
	snapshots SnapshotStore
}

func NewPipeline(writer ResultWriter, snapshots SnapshotStore) *Pipeline {
	return &Pipeline{writer: writer, snapshots: snapshots}
}

// Submit scores and persists the submission, then drops the resume snapshot.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (domain.AttemptResult, error) {
	result, records := Score(sub)
	err := p.writer.ReplaceAnswers(ctx, sub.AttemptID, records)
	switch {
	case errors.Is(err, domain.ErrAttemptCompleted):
		// An earlier try committed but its acknowledgement was lost.
		log.Printf("submit: attempt %s already completed, keeping stored answers", sub.AttemptID)
	case err != nil:
		return domain.AttemptResult{}, fmt.Errorf("replace answers: %w", err)
	default:
		if err := p.writer.CompleteAttempt(ctx, sub.AttemptID, result); err != nil {
			return domain.AttemptResult{}, fmt.Errorf("complete attempt: %w", err)
		}
	}
	if err := p.snapshots.Clear(ctx, sub.AttemptID); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		log.Printf("submit: clear snapshot for %s: %v", sub.AttemptID, err)
	}
	return result, nil
}

// submission is the pipeline state held by a session.
type submission struct {
	state   domain.SubmissionState
	frozen  *Submission
	lastErr string
	result  *domain.AttemptResult
}

func newSubmission() submission {
	return submission{state: domain.SubmissionIdle}
}

// open reports whether the session still accepts edits and monitoring.
func (s *submission) open() bool {
	return s.state == domain.SubmissionIdle || s.state == domain.SubmissionConfirmRequested
}
