package app

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
	"interview-quiz-service/internal/domain"
)

// QuizService contains the interview session use cases.
type QuizService struct {
	store     Store
	snapshots SnapshotStore
	sessions  SessionRepository
	settings  Settings
	assembler *Assembler
	pipeline  *Pipeline
	now       func() time.Time

	opening singleflight.Group
}

func NewQuizService(store Store, snapshots SnapshotStore, sessions SessionRepository, settings Settings) *QuizService {
	settings = settings.withDefaults()
	return &QuizService{
		store:     store,
		snapshots: snapshots,
		sessions:  sessions,
		settings:  settings,
		assembler: NewAssembler(store, settings),
		pipeline:  NewPipeline(store, snapshots),
		now:       time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(store Store, snapshots SnapshotStore, sessions SessionRepository, settings Settings, now func() time.Time) *QuizService {
	s := NewQuizService(store, snapshots, sessions, settings)
	s.now = now
	return s
}

// Open returns the live session for an attempt, loading or resuming it when
// needed. Concurrent opens of the same attempt share one load.
func (s *QuizService) Open(ctx context.Context, sc SessionContext, probes Probes) (domain.View, error) {
	sess, err := s.open(ctx, sc)
	if err != nil {
		return domain.View{}, err
	}
	if sc.CriteriaID != "" && sc.CriteriaID != sess.criteria.ID {
		return domain.View{}, domain.ErrCriteriaMismatch
	}
	if probes.Compliance != nil || probes.Instrumentation != nil {
		sess.attach(probes)
	}
	return sess.View(), nil
}

func (s *QuizService) open(ctx context.Context, sc SessionContext) (*Session, error) {
	if sess, ok := s.sessions.Get(sc.AttemptID); ok {
		return sess, nil
	}
	v, err, _ := s.opening.Do(sc.AttemptID, func() (any, error) {
		if sess, ok := s.sessions.Get(sc.AttemptID); ok {
			return sess, nil
		}
		sess, err := s.load(ctx, sc)
		if err != nil {
			return nil, err
		}
		registered := s.sessions.Put(sess)
		if registered != sess {
			return registered, nil
		}
		sess.start(context.WithoutCancel(ctx), s.snapshots, s.store)
		log.Printf("quiz: attempt %s opened (%d questions, total %d)", sess.attemptID, len(sess.sequence), sess.totalExpected)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *QuizService) session(attemptID string) (*Session, error) {
	sess, ok := s.sessions.Get(attemptID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// State returns the current view of a live session.
func (s *QuizService) State(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.View(), nil
}

// SelectAnswer records an answer; the answer must match one of the question's options.
func (s *QuizService) SelectAnswer(_ context.Context, attemptID, questionID, answer string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.selectAnswer(questionID, answer)
}

func (s *QuizService) Next(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.next()
}

func (s *QuizService) Previous(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.previous()
}

// JumpTo moves to an index. Jumping into the elective block before the
// specialization is confirmed opens the gate and defers the jump.
func (s *QuizService) JumpTo(_ context.Context, attemptID string, index int) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.jumpTo(index)
}

func (s *QuizService) ChooseSubject(_ context.Context, attemptID, subject string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.chooseSubject(subject)
}

func (s *QuizService) CancelSubject(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.cancelSubject()
}

func (s *QuizService) ConfirmSubject(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.confirmSubject()
}

func (s *QuizService) CloseGate(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.dismissGate()
}

// ReportViolation feeds a client-observed violation to the proctoring monitor.
// Escalation submits before returning.
func (s *QuizService) ReportViolation(ctx context.Context, attemptID string, kind domain.ViolationKind) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	sess.onViolation(ctx, kind)
	return sess.View(), nil
}

// HandleKey classifies a key press and reports screenshot shortcuts as violations.
func (s *QuizService) HandleKey(ctx context.Context, attemptID string, key domain.KeyPress) (domain.KeyVerdict, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.KeyVerdict{}, err
	}
	verdict := sess.handleKey(key)
	if verdict.Violation {
		sess.onViolation(ctx, domain.ViolationScreenshot)
	}
	return verdict, nil
}

func (s *QuizService) ResumeAfterWarning(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.resumeAfterWarning()
}

// QuitAndSubmit ends the attempt from the proctoring warning.
func (s *QuizService) QuitAndSubmit(ctx context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.quit(ctx)
}

func (s *QuizService) RequestSubmit(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.requestSubmit()
}

func (s *QuizService) CancelSubmit(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.cancelSubmit()
}

func (s *QuizService) ReviewUnanswered(_ context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.reviewUnanswered()
}

// ConfirmSubmit runs the submission pipeline after a confirmation request.
func (s *QuizService) ConfirmSubmit(ctx context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.submit(ctx, domain.ReasonManual)
}

// RetrySubmit re-runs a failed submission with the same frozen answers.
func (s *QuizService) RetrySubmit(ctx context.Context, attemptID string) (domain.View, error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return sess.retry(ctx)
}

// Subscribe returns a channel that receives view updates for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan domain.View, func(), error) {
	sess, err := s.session(attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// Leave saves a checkpoint when a client disconnects and pauses proctoring
// when no other client watches. The session stays live so a reload
// reattaches to it; idle sessions are reaped separately.
func (s *QuizService) Leave(ctx context.Context, attemptID string) {
	sess, ok := s.sessions.Get(attemptID)
	if !ok {
		return
	}
	sess.release()
	if err := sess.persist(ctx, s.snapshots); err != nil {
		log.Printf("quiz: checkpoint on leave for %s: %v", attemptID, err)
	}
}

// Checkpoint persists a snapshot of every live session and returns how many were saved.
func (s *QuizService) Checkpoint(ctx context.Context) (int, error) {
	var errs []error
	saved := 0
	for _, sess := range s.sessions.List() {
		if err := sess.persist(ctx, s.snapshots); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// ReapIdle stops and drops sessions nobody watches that are completed or have
// been idle longer than idle. It returns the number of sessions removed.
func (s *QuizService) ReapIdle(ctx context.Context, idle time.Duration) int {
	now := s.now()
	reaped := 0
	for _, sess := range s.sessions.List() {
		if sess.SubscriberCount() > 0 {
			continue
		}
		if !sess.Completed() && now.Sub(sess.LastActivity()) < idle {
			continue
		}
		s.retire(ctx, sess)
		reaped++
	}
	return reaped
}

// Close retires every live session, saving snapshots first.
func (s *QuizService) Close(ctx context.Context) {
	for _, sess := range s.sessions.List() {
		s.retire(ctx, sess)
	}
}

func (s *QuizService) retire(ctx context.Context, sess *Session) {
	sess.stop()
	if err := sess.persist(ctx, s.snapshots); err != nil {
		log.Printf("quiz: final checkpoint for %s: %v", sess.attemptID, err)
	}
	s.sessions.Delete(sess.attemptID)
	log.Printf("quiz: attempt %s retired", sess.attemptID)
}
