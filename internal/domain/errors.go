package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no live session exists for an attempt.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID that is not part of the presented sequence.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an answer that is not one of the question's options.
	ErrOptionNotFound = errors.New("option not found")

	// ErrNoQuestionsAvailable means the criteria has no active questions for the chosen set.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrInsufficientGeneralQuestions means the general block could not be filled.
	ErrInsufficientGeneralQuestions = errors.New("insufficient general questions")
	// ErrCriteriaNotFound indicates the criteria record is missing.
	ErrCriteriaNotFound = errors.New("criteria not found")
	// ErrCriteriaInactive indicates the criteria is switched off.
	ErrCriteriaInactive = errors.New("criteria is not active")

	// ErrAttemptNotFound indicates the attempt does not exist remotely.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted indicates the attempt was already submitted.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrCriteriaMismatch indicates the session context disagrees with the attempt record.
	ErrCriteriaMismatch = errors.New("criteria does not match attempt")

	// ErrSessionLocked is returned for edits once submission has started.
	ErrSessionLocked = errors.New("session is locked for submission")
	// ErrSpecializationRequired is returned when the elective block is touched before the gate resolves.
	ErrSpecializationRequired = errors.New("specialization not confirmed")
	// ErrSpecializationLocked is returned when a confirmed specialization is changed.
	ErrSpecializationLocked = errors.New("specialization already confirmed")
	// ErrGateNotOpen is returned for gate actions outside the matching gate state.
	ErrGateNotOpen = errors.New("specialization gate is not in the required state")
	// ErrUnknownSubject is returned for a subject with no elective questions.
	ErrUnknownSubject = errors.New("unknown elective subject")
	// ErrIndexOutOfRange is returned for a jump outside the presented sequence.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrNoWarningActive is returned when resume/quit is sent without a warning showing.
	ErrNoWarningActive = errors.New("no proctoring warning active")

	// ErrSubmissionInFlight is returned when a second submission is issued.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrAlreadySubmitted is returned after the attempt completed.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrNothingToRetry is returned when retry is requested without a failed submission.
	ErrNothingToRetry = errors.New("no failed submission to retry")
	// ErrNotConfirming is returned when submission confirmation is answered without a request.
	ErrNotConfirming = errors.New("submission confirmation not requested")

	// ErrSnapshotNotFound is returned by snapshot stores for a missing blob.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// QuestionError reports a malformed question record rejected at the assembler boundary.
type QuestionError struct {
	QuestionID string
	Err        error
}

func (e *QuestionError) Error() string {
	return fmt.Sprintf("malformed question %q: %v", e.QuestionID, e.Err)
}

func (e *QuestionError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is terminal for the session and
// needs a path back to criteria/set selection.
func IsConfigurationError(err error) bool {
	var qe *QuestionError
	return errors.Is(err, ErrNoQuestionsAvailable) ||
		errors.Is(err, ErrInsufficientGeneralQuestions) ||
		errors.Is(err, ErrCriteriaNotFound) ||
		errors.Is(err, ErrCriteriaInactive) ||
		errors.As(err, &qe)
}

// IsAttemptError reports whether err means the candidate must go back to the entry point.
func IsAttemptError(err error) bool {
	return errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrAttemptCompleted) ||
		errors.Is(err, ErrCriteriaMismatch)
}
