package app

import (
	"context"
	"time"

	"interview-quiz-service/internal/domain"
)

// QuestionBank is the read side of the remote data store.
type QuestionBank interface {
	// Questions returns active questions matching the filter in stable creation order.
	Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	Criteria(ctx context.Context, criteriaID string) (domain.Criteria, error)
	SiteSettings(ctx context.Context) (domain.SiteSettings, error)
	// DriveOverride returns nil when no drive is scheduled for the criteria on that day.
	DriveOverride(ctx context.Context, criteriaID string, day time.Time) (*domain.DriveOverride, error)
	Attempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// ResultWriter is the write side of the remote data store.
type ResultWriter interface {
	// ReplaceAnswers atomically swaps every answer record of the attempt.
	ReplaceAnswers(ctx context.Context, attemptID string, records []domain.AnswerRecord) error
	CompleteAttempt(ctx context.Context, attemptID string, result domain.AttemptResult) error
	RecordProctorEvent(ctx context.Context, event domain.ProctorEvent) error
}

// Store combines both sides of the remote data store.
type Store interface {
	QuestionBank
	ResultWriter
}

// SnapshotStore keeps the opaque resume blob of a session keyed by attempt id.
type SnapshotStore interface {
	Load(ctx context.Context, attemptID string) ([]byte, error)
	Save(ctx context.Context, attemptID string, blob []byte) error
	Clear(ctx context.Context, attemptID string) error
}

// SessionRepository tracks live sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Get(attemptID string) (*Session, bool)
	// Put stores the session unless one is already registered, and returns the registered one.
	Put(session *Session) *Session
	Delete(attemptID string)
	List() []*Session
}

// ComplianceSource reports the latest presentation state of the client.
type ComplianceSource interface {
	Compliance() domain.ComplianceStatus
}

// InstrumentationDetector reports whether developer tooling appears to be attached.
type InstrumentationDetector interface {
	DetectInstrumentation() bool
}

// Probes are the client-side signal sources attached to a running session.
type Probes struct {
	Compliance      ComplianceSource
	Instrumentation InstrumentationDetector
}
