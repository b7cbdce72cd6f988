package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"interview-quiz-service/internal/domain"
)

// Store is an in-memory implementation of app.Store (useful for tests/demos).
// Questions keep the order they were added in, like creation order remotely.
type Store struct {
	mu        sync.RWMutex
	criteria  map[string]domain.Criteria
	questions []domain.Question
	site      domain.SiteSettings
	overrides []domain.DriveOverride
	attempts  map[string]domain.Attempt
	answers   map[string][]domain.AnswerRecord
	events    map[string][]domain.ProctorEvent

	failWrites error
	writes     int
}

func NewStore() *Store {
	return &Store{
		criteria: make(map[string]domain.Criteria),
		attempts: make(map[string]domain.Attempt),
		answers:  make(map[string][]domain.AnswerRecord),
		events:   make(map[string][]domain.ProctorEvent),
	}
}

func (s *Store) AddCriteria(c domain.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria[c.ID] = c
}

func (s *Store) AddQuestions(qs ...domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, qs...)
}

func (s *Store) SetSiteSettings(site domain.SiteSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.site = site
}

func (s *Store) AddDriveOverride(o domain.DriveOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, o)
}

func (s *Store) AddAttempt(a domain.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Status == "" {
		a.Status = domain.AttemptInProgress
	}
	s.attempts[a.ID] = a
}

// FailWrites makes every write return err until called again with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Writes counts successful answer replacements and completions.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Answers returns the persisted answer records of an attempt.
func (s *Store) Answers(attemptID string) []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AnswerRecord(nil), s.answers[attemptID]...)
}

// ProctorEvents returns the recorded audit trail of an attempt.
func (s *Store) ProctorEvents(attemptID string) []domain.ProctorEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ProctorEvent(nil), s.events[attemptID]...)
}

func (s *Store) Questions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, q := range s.questions {
		if !q.Active || !matches(q, filter) {
			continue
		}
		q.Options = append([]string(nil), q.Options...)
		out = append(out, q)
	}
	return out, nil
}

func matches(q domain.Question, f domain.QuestionFilter) bool {
	switch {
	case f.CriteriaID != "" && q.CriteriaID != f.CriteriaID:
		return false
	case f.SetLabel != "" && q.SetLabel != f.SetLabel:
		return false
	case f.Section != "" && q.Section != f.Section:
		return false
	case f.Subsection != "" && q.Subsection != f.Subsection:
		return false
	}
	return true
}

func (s *Store) Criteria(_ context.Context, criteriaID string) (domain.Criteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.criteria[criteriaID]
	if !ok {
		return domain.Criteria{}, domain.ErrCriteriaNotFound
	}
	return c, nil
}

func (s *Store) SiteSettings(_ context.Context) (domain.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site, nil
}

func (s *Store) DriveOverride(_ context.Context, criteriaID string, day time.Time) (*domain.DriveOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, m, d := day.Date()
	for _, o := range s.overrides {
		oy, om, od := o.Day.Date()
		if o.CriteriaID == criteriaID && oy == y && om == m && od == d {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) Attempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

func (s *Store) ReplaceAnswers(_ context.Context, attemptID string, records []domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if a.Status == domain.AttemptCompleted {
		return domain.ErrAttemptCompleted
	}
	s.answers[attemptID] = append([]domain.AnswerRecord(nil), records...)
	s.writes++
	return nil
}

func (s *Store) CompleteAttempt(_ context.Context, attemptID string, result domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if a.Status == domain.AttemptCompleted {
		return nil
	}
	completedAt := result.CompletedAt
	a.Status = domain.AttemptCompleted
	a.CompletedAt = &completedAt
	a.Score = result.Score
	a.TotalQuestions = result.TotalQuestions
	a.Percentage = result.Percentage
	a.Passed = result.Passed
	a.DeviceFingerprint = result.DeviceFingerprint
	a.SubmitReason = result.Reason
	s.attempts[attemptID] = a
	s.writes++
	return nil
}

func (s *Store) RecordProctorEvent(_ context.Context, event domain.ProctorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := append(s.events[event.AttemptID], event)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	s.events[event.AttemptID] = events
	return nil
}
