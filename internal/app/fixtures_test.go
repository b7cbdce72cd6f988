package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"interview-quiz-service/internal/domain"
)

var subsections = []string{"grammar", "computer_science", "testing", "logical_reasoning", "miscellaneous"}

// bankQuestions builds general questions spread over subsections plus the
// given number of elective questions per subject. Option "B..." is correct.
func bankQuestions(criteriaID string, general int, electives map[string]int) []domain.Question {
	var qs []domain.Question
	for i := 0; i < general; i++ {
		qs = append(qs, question(criteriaID, fmt.Sprintf("g%02d", i), domain.SectionGeneral, subsections[i%len(subsections)]))
	}
	for subject, n := range electives {
		for i := 0; i < n; i++ {
			qs = append(qs, question(criteriaID, fmt.Sprintf("%s%02d", subject, i), domain.SectionElective, subject))
		}
	}
	return qs
}

func question(criteriaID, id string, section domain.Section, subsection string) domain.Question {
	return domain.Question{
		ID:            id,
		CriteriaID:    criteriaID,
		Section:       section,
		Subsection:    subsection,
		Text:          "question " + id,
		Options:       []string{"A " + id, "B " + id, "C " + id, "D " + id},
		CorrectAnswer: "B " + id,
		Active:        true,
	}
}

func correctFor(id string) string { return "B " + id }
func wrongFor(id string) string   { return "C " + id }

type fakeStore struct {
	mu        sync.Mutex
	criteria  map[string]domain.Criteria
	questions []domain.Question
	site      domain.SiteSettings
	override  *domain.DriveOverride
	attempts  map[string]domain.Attempt
	answers   map[string][]domain.AnswerRecord
	events    []domain.ProctorEvent

	failComplete error
	replaces     int
	completes    int
}

func newFakeStore(questions []domain.Question, timerMinutes *int) *fakeStore {
	return &fakeStore{
		criteria: map[string]domain.Criteria{
			"crit-1": {ID: "crit-1", Name: "Backend", PassThreshold: 60, TimerMinutes: timerMinutes, Active: true},
		},
		questions: questions,
		attempts: map[string]domain.Attempt{
			"attempt-1": {ID: "attempt-1", CriteriaID: "crit-1", Status: domain.AttemptInProgress},
		},
		answers: make(map[string][]domain.AnswerRecord),
	}
}

func (f *fakeStore) Questions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Question
	for _, q := range f.questions {
		if q.CriteriaID == filter.CriteriaID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) Criteria(_ context.Context, id string) (domain.Criteria, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.criteria[id]
	if !ok {
		return domain.Criteria{}, domain.ErrCriteriaNotFound
	}
	return c, nil
}

func (f *fakeStore) SiteSettings(context.Context) (domain.SiteSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.site, nil
}

func (f *fakeStore) DriveOverride(context.Context, string, time.Time) (*domain.DriveOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.override, nil
}

func (f *fakeStore) Attempt(_ context.Context, id string) (domain.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

func (f *fakeStore) ReplaceAnswers(_ context.Context, id string, records []domain.AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempts[id].Status == domain.AttemptCompleted {
		return domain.ErrAttemptCompleted
	}
	f.answers[id] = append([]domain.AnswerRecord(nil), records...)
	f.replaces++
	return nil
}

func (f *fakeStore) CompleteAttempt(_ context.Context, id string, result domain.AttemptResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failComplete != nil {
		return f.failComplete
	}
	a := f.attempts[id]
	a.Status = domain.AttemptCompleted
	a.Score = result.Score
	a.TotalQuestions = result.TotalQuestions
	a.Percentage = result.Percentage
	a.Passed = result.Passed
	a.SubmitReason = result.Reason
	f.attempts[id] = a
	f.completes++
	return nil
}

func (f *fakeStore) RecordProctorEvent(_ context.Context, ev domain.ProctorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) setFailComplete(err error) {
	f.mu.Lock()
	f.failComplete = err
	f.mu.Unlock()
}

func (f *fakeStore) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// hasEvent reports whether a violation of kind was audited with outcome.
func (f *fakeStore) hasEvent(kind domain.ViolationKind, outcome domain.ProctorOutcome) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.Kind == kind && ev.Outcome == outcome {
			return true
		}
	}
	return false
}

type mapSnapshots struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMapSnapshots() *mapSnapshots {
	return &mapSnapshots{blobs: make(map[string][]byte)}
}

func (m *mapSnapshots) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return b, nil
}

func (m *mapSnapshots) Save(_ context.Context, id string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = append([]byte(nil), blob...)
	return nil
}

func (m *mapSnapshots) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

func (m *mapSnapshots) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[id]
	return ok
}

type mapSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMapSessions() *mapSessions {
	return &mapSessions{sessions: make(map[string]*Session)}
}

func (m *mapSessions) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *mapSessions) Put(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[s.AttemptID()]; ok {
		return existing
	}
	m.sessions[s.AttemptID()] = s
	return s
}

func (m *mapSessions) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *mapSessions) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// quietSettings keeps the background clock out of the way; tests drive
// ticks by hand.
func quietSettings() Settings {
	s := DefaultSettings()
	s.Tick = time.Hour
	s.ComplianceInterval = time.Hour
	s.ProbeInterval = time.Hour
	return s
}

type harness struct {
	t         *testing.T
	store     *fakeStore
	snapshots *mapSnapshots
	sessions  *mapSessions
	svc       *QuizService
}

func newHarness(t *testing.T, store *fakeStore, settings Settings) *harness {
	t.Helper()
	h := &harness{t: t, store: store, snapshots: newMapSnapshots(), sessions: newMapSessions()}
	h.svc = NewQuizService(store, h.snapshots, h.sessions, settings)
	t.Cleanup(func() { h.svc.Close(context.Background()) })
	return h
}

func (h *harness) open() domain.View {
	h.t.Helper()
	view, err := h.svc.Open(context.Background(), SessionContext{AttemptID: "attempt-1", CriteriaID: "crit-1"}, Probes{})
	if err != nil {
		h.t.Fatalf("open: %v", err)
	}
	return view
}

func (h *harness) session() *Session {
	h.t.Helper()
	s, ok := h.sessions.Get("attempt-1")
	if !ok {
		h.t.Fatalf("session not registered")
	}
	return s
}

func (h *harness) answer(id, answer string) domain.View {
	h.t.Helper()
	view, err := h.svc.SelectAnswer(context.Background(), "attempt-1", id, answer)
	if err != nil {
		h.t.Fatalf("answer %s: %v", id, err)
	}
	return view
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.session().tick()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func intPtr(v int) *int { return &v }
