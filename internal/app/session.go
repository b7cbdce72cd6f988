package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"interview-quiz-service/internal/domain"
)

// Session is the live state machine of one quiz attempt. It is the single
// source of truth while the attempt runs; remote records are written once, at
// submission.
type Session struct {
	attemptID   string
	criteria    domain.Criteria
	setLabel    string
	fingerprint string
	settings    Settings
	site        domain.SiteSettings
	now         func() time.Time
	pipeline    *Pipeline

	mu            sync.RWMutex
	canonical     map[string]domain.Question
	sequence      []domain.PresentedQuestion
	generalCount  int
	pools         map[string][]domain.PresentedQuestion
	subjects      []string
	totalExpected int
	ledger        ledger
	gate          gate
	timer         countdown
	proctor       proctor
	submission    submission
	probes        Probes
	unattended    bool
	resumedAt     time.Time
	lastActivity  time.Time
	subscribers   map[chan domain.View]struct{}

	saves  chan struct{}
	audits chan domain.ProctorEvent

	saveMu  sync.Mutex
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

type sessionConfig struct {
	attemptID   string
	setLabel    string
	fingerprint string
	criteria    domain.Criteria
	site        domain.SiteSettings
	settings    Settings
	assembly    *Assembly
	timer       countdown
	pipeline    *Pipeline
	now         func() time.Time
}

func newSession(cfg sessionConfig) *Session {
	if cfg.now == nil {
		cfg.now = time.Now
	}
	settings := cfg.settings.withDefaults()
	a := cfg.assembly
	return &Session{
		attemptID:     cfg.attemptID,
		criteria:      cfg.criteria,
		setLabel:      cfg.setLabel,
		fingerprint:   cfg.fingerprint,
		settings:      settings,
		site:          cfg.site,
		now:           cfg.now,
		pipeline:      cfg.pipeline,
		canonical:     a.Canonical,
		sequence:      a.Sequence(a.Provisional),
		generalCount:  len(a.General),
		pools:         a.Pools,
		subjects:      a.Subjects,
		totalExpected: a.TotalExpected,
		ledger:        newLedger(),
		gate:          newGate(),
		timer:         cfg.timer,
		proctor:       newProctor(settings.MaxStrikes, settings.WarningSeconds),
		submission:    newSubmission(),
		lastActivity:  cfg.now(),
		subscribers:   make(map[chan domain.View]struct{}),
		saves:         make(chan struct{}, 1),
		audits:        make(chan domain.ProctorEvent, 32),
	}
}

// NewSession returns an empty, unstarted session. It is exported for
// infrastructure layers and their tests.
func NewSession(attemptID string) *Session {
	return newSession(sessionConfig{
		attemptID: attemptID,
		assembly:  &Assembly{Pools: map[string][]domain.PresentedQuestion{}},
		timer:     newCountdown(0, true),
	})
}

// AttemptID identifies the session.
func (s *Session) AttemptID() string {
	return s.attemptID
}

// View returns the current state as shown to the client.
func (s *Session) View() domain.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// LastActivity is the time of the last state change.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SubscriberCount reports how many clients are watching the session.
func (s *Session) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Completed reports whether the attempt has been submitted successfully.
func (s *Session) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submission.state == domain.SubmissionCompleted
}

func (s *Session) attach(probes Probes) {
	s.mu.Lock()
	s.probes = probes
	s.mu.Unlock()
}

// release marks the session unattended once nobody watches it. An unattended
// session keeps its timer running but ignores its client signal sources, and a
// pending warning waits for the candidate to come back. The sources are kept:
// a reconnecting client may already have attached new ones.
func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Session) releaseLocked() {
	if len(s.subscribers) > 0 || s.unattended {
		return
	}
	s.unattended = true
	log.Printf("proctor: attempt %s unattended, monitoring paused", s.attemptID)
}

// --- navigation and answers ---

func (s *Session) selectAnswer(questionID, answer string) (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	idx := s.indexOfLocked(questionID)
	if idx < 0 {
		return s.viewLocked(), domain.ErrQuestionNotFound
	}
	if idx >= s.generalCount && !s.gate.locked() {
		return s.viewLocked(), domain.ErrSpecializationRequired
	}
	option, ok := matchOption(s.sequence[idx].Options, answer)
	if !ok {
		return s.viewLocked(), domain.ErrOptionNotFound
	}
	s.ledger.record(questionID, option)
	return s.changedLocked(), nil
}

func (s *Session) next() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	target := s.ledger.current + 1
	if target >= len(s.sequence) {
		return s.viewLocked(), nil
	}
	if s.needsGateLocked(target) {
		s.gate.open(noDeferredJump)
		return s.changedLocked(), nil
	}
	s.moveLocked(target)
	return s.changedLocked(), nil
}

func (s *Session) previous() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	target := s.ledger.current - 1
	if target < 0 {
		target = 0
	}
	s.moveLocked(target)
	return s.changedLocked(), nil
}

func (s *Session) jumpTo(index int) (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	if err := s.jumpLocked(index); err != nil {
		return s.viewLocked(), err
	}
	return s.changedLocked(), nil
}

func (s *Session) jumpLocked(index int) error {
	if index < 0 || index >= len(s.sequence) {
		return domain.ErrIndexOutOfRange
	}
	if s.needsGateLocked(index) {
		s.gate.open(index)
		return nil
	}
	s.moveLocked(index)
	return nil
}

// moveLocked changes position; leaving for a general index dismisses an open gate.
func (s *Session) moveLocked(index int) {
	if s.gate.state == domain.GateChoosing || s.gate.state == domain.GateConfirming {
		_ = s.gate.dismiss()
	}
	s.ledger.moveTo(index)
}

func (s *Session) needsGateLocked(target int) bool {
	return target >= s.generalCount && !s.gate.locked() && len(s.subjects) > 0
}

func (s *Session) indexOfLocked(questionID string) int {
	for i, q := range s.sequence {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

// --- specialization gate ---

func (s *Session) chooseSubject(subject string) (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	if s.gate.locked() {
		return s.viewLocked(), domain.ErrSpecializationLocked
	}
	if _, ok := s.pools[subject]; !ok {
		return s.viewLocked(), domain.ErrUnknownSubject
	}
	if err := s.gate.choose(subject); err != nil {
		return s.viewLocked(), err
	}
	return s.changedLocked(), nil
}

func (s *Session) cancelSubject() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.cancel(); err != nil {
		return s.viewLocked(), err
	}
	return s.changedLocked(), nil
}

func (s *Session) dismissGate() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.dismiss(); err != nil {
		return s.viewLocked(), err
	}
	return s.changedLocked(), nil
}

// confirmSubject commits the specialization and swaps the elective slice.
// The general slice, its answers and totalExpected are left untouched.
func (s *Session) confirmSubject() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	subject, deferred, err := s.gate.confirm()
	if err != nil {
		return s.viewLocked(), err
	}

	for _, q := range s.sequence[s.generalCount:] {
		s.ledger.forget(q.ID)
	}
	pool := s.pools[subject]
	seq := make([]domain.PresentedQuestion, 0, s.generalCount+len(pool))
	seq = append(seq, s.sequence[:s.generalCount]...)
	s.sequence = append(seq, pool...)

	target := deferred
	if target == noDeferredJump {
		target = s.ledger.current + 1
	}
	if target >= len(s.sequence) {
		target = len(s.sequence) - 1
	}
	s.ledger.moveTo(target)
	log.Printf("quiz: attempt %s specialization %s confirmed", s.attemptID, subject)
	return s.changedLocked(), nil
}

// --- proctoring ---

func (s *Session) handleViolation(kind domain.ViolationKind) proctorDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submission.open() {
		return proctorDecision{outcome: domain.OutcomeIgnored}
	}
	d := s.proctor.violate()
	if d.outcome == domain.OutcomeIgnored {
		return d
	}
	log.Printf("proctor: attempt %s %s -> %s (strikes %d)", s.attemptID, kind, d.outcome, s.proctor.strikes)
	s.auditLocked(kind, d.outcome)
	s.changedLocked()
	return d
}

// handleKey classifies a key press. A screenshot shortcut locks the keyboard;
// the caller reports the violation itself.
func (s *Session) handleKey(k domain.KeyPress) domain.KeyVerdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submission.open() {
		return domain.KeyVerdict{Allowed: true}
	}
	wasLocked := s.proctor.keyboardLocked
	v := s.proctor.classify(k, s.site.ScreenshotBlocking)
	if s.proctor.keyboardLocked != wasLocked {
		s.changedLocked()
	}
	return v
}

func (s *Session) resumeAfterWarning() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	if err := s.proctor.resume(); err != nil {
		return s.viewLocked(), err
	}
	s.resumedAt = s.now()
	s.auditLocked("", domain.OutcomeResumed)
	return s.changedLocked(), nil
}

func (s *Session) quit(ctx context.Context) (domain.View, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		defer s.mu.Unlock()
		return s.viewLocked(), err
	}
	if err := s.proctor.quit(); err != nil {
		defer s.mu.Unlock()
		return s.viewLocked(), err
	}
	s.auditLocked("", domain.OutcomeQuit)
	s.mu.Unlock()
	return s.submit(ctx, domain.ReasonProctorQuit)
}

// pollCompliance checks the attached compliance source. A short grace period
// after resuming lets the client re-enter fullscreen.
func (s *Session) pollCompliance() (domain.ViolationKind, bool) {
	s.mu.RLock()
	src := s.probes.Compliance
	resumedAt := s.resumedAt
	active := s.submission.open() && !s.unattended
	s.mu.RUnlock()
	if src == nil || !active {
		return "", false
	}
	if s.now().Sub(resumedAt) < 2*s.settings.ComplianceInterval {
		return "", false
	}
	return src.Compliance().Violation()
}

func (s *Session) probeInstrumentation() bool {
	s.mu.RLock()
	det := s.probes.Instrumentation
	active := s.submission.open() && !s.unattended
	s.mu.RUnlock()
	return det != nil && active && det.DetectInstrumentation()
}

// tick advances the countdown and any warning by one step. It reports a
// proctor decision and whether the timer policy wants a forced submission.
func (s *Session) tick() (proctorDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submission.open() {
		return proctorDecision{}, false
	}
	warning := s.proctor.warning
	expiredNow := s.timer.tick()
	var d proctorDecision
	if !s.unattended {
		d = s.proctor.tick()
	}
	if d.forces() {
		log.Printf("proctor: attempt %s warning timed out", s.attemptID)
		s.auditLocked("", d.outcome)
	}
	if expiredNow {
		log.Printf("quiz: attempt %s timer expired", s.attemptID)
	}
	if (!s.timer.unlimited && !s.timer.expired) || expiredNow || warning {
		s.changedLocked()
	}
	return d, expiredNow && s.settings.AutoSubmitOnExpiry
}

func (s *Session) auditLocked(kind domain.ViolationKind, outcome domain.ProctorOutcome) {
	ev := domain.ProctorEvent{
		ID:        uuid.NewString(),
		AttemptID: s.attemptID,
		Kind:      kind,
		Outcome:   outcome,
		Strikes:   s.proctor.strikes,
		At:        s.now(),
	}
	select {
	case s.audits <- ev:
	default:
		log.Printf("proctor: audit queue full, dropping %s event for %s", outcome, s.attemptID)
	}
}

// --- submission ---

func (s *Session) requestSubmit() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return s.viewLocked(), err
	}
	s.submission.state = domain.SubmissionConfirmRequested
	return s.changedLocked(), nil
}

func (s *Session) cancelSubmit() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission.state != domain.SubmissionConfirmRequested {
		return s.viewLocked(), domain.ErrNotConfirming
	}
	s.submission.state = domain.SubmissionIdle
	return s.changedLocked(), nil
}

// reviewUnanswered leaves confirmation and goes to the first unanswered question.
func (s *Session) reviewUnanswered() (domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission.state != domain.SubmissionConfirmRequested {
		return s.viewLocked(), domain.ErrNotConfirming
	}
	s.submission.state = domain.SubmissionIdle
	if idx := s.firstUnansweredLocked(); idx >= 0 {
		if err := s.jumpLocked(idx); err != nil {
			return s.viewLocked(), err
		}
	}
	return s.changedLocked(), nil
}

func (s *Session) firstUnansweredLocked() int {
	for i, q := range s.sequence {
		if !s.ledger.isAnswered(q.ID) {
			return i
		}
	}
	return -1
}

// submit freezes the ledger and runs the pipeline. Manual submissions need a
// prior confirmation request; forced ones skip it.
func (s *Session) submit(ctx context.Context, reason domain.SubmitReason) (domain.View, error) {
	return s.runSubmission(ctx, func() error {
		switch s.submission.state {
		case domain.SubmissionSubmitting:
			return domain.ErrSubmissionInFlight
		case domain.SubmissionCompleted:
			return domain.ErrAlreadySubmitted
		case domain.SubmissionFailed:
			return domain.ErrSessionLocked
		case domain.SubmissionIdle:
			if !reason.Forced() {
				return domain.ErrNotConfirming
			}
		}
		frozen := s.freezeLocked(reason)
		s.submission.frozen = &frozen
		return nil
	})
}

// retry re-enters Submitting with the preserved snapshot.
func (s *Session) retry(ctx context.Context) (domain.View, error) {
	return s.runSubmission(ctx, func() error {
		if s.submission.state != domain.SubmissionFailed || s.submission.frozen == nil {
			return domain.ErrNothingToRetry
		}
		return nil
	})
}

// runSubmission enters Submitting when prepare, run under the session lock,
// allows it. saveMu is held across the transition so no snapshot write
// straddles it.
func (s *Session) runSubmission(ctx context.Context, prepare func() error) (domain.View, error) {
	s.saveMu.Lock()
	s.mu.Lock()
	if err := prepare(); err != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		s.saveMu.Unlock()
		return view, err
	}
	frozen := *s.submission.frozen
	s.submission.state = domain.SubmissionSubmitting
	s.submission.lastErr = ""
	s.broadcastLocked()
	s.mu.Unlock()
	s.saveMu.Unlock()

	// Once Submitting begins it is not cancelled mid-flight.
	result, err := s.pipeline.Submit(context.WithoutCancel(ctx), frozen)

	s.mu.Lock()
	if err != nil {
		s.submission.state = domain.SubmissionFailed
		s.submission.lastErr = err.Error()
		log.Printf("submit: attempt %s (%s) failed: %v", s.attemptID, frozen.Reason, err)
		view := s.broadcastLocked()
		s.mu.Unlock()
		return view, err
	}
	s.submission.state = domain.SubmissionCompleted
	s.submission.result = &result
	log.Printf("submit: attempt %s (%s) completed score=%d/%d passed=%v",
		s.attemptID, frozen.Reason, result.Score, result.TotalQuestions, result.Passed)
	view := s.broadcastLocked()
	s.mu.Unlock()

	s.halt()
	return view, nil
}

func (s *Session) freezeLocked(reason domain.SubmitReason) Submission {
	entries := make([]SubmissionEntry, 0, len(s.sequence))
	for _, q := range s.sequence {
		entries = append(entries, SubmissionEntry{
			QuestionID: q.ID,
			Selected:   s.ledger.answers[q.ID],
			Correct:    s.canonical[q.ID].CorrectAnswer,
		})
	}
	return Submission{
		AttemptID:         s.attemptID,
		Entries:           entries,
		TotalExpected:     s.totalExpected,
		PassThreshold:     s.criteria.PassThreshold,
		Reason:            reason,
		DeviceFingerprint: s.fingerprint,
		CapturedAt:        s.now(),
	}
}

func (s *Session) editableLocked() error {
	switch s.submission.state {
	case domain.SubmissionCompleted:
		return domain.ErrAlreadySubmitted
	case domain.SubmissionSubmitting, domain.SubmissionFailed:
		return domain.ErrSessionLocked
	}
	return nil
}

// --- views, subscribers, snapshots ---

// changedLocked records activity, schedules a background save and broadcasts.
func (s *Session) changedLocked() domain.View {
	s.lastActivity = s.now()
	select {
	case s.saves <- struct{}{}:
	default:
	}
	return s.broadcastLocked()
}

func (s *Session) subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.unattended = false
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
			s.releaseLocked()
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.View {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscribers only need the newest view.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) viewLocked() domain.View {
	questions := make([]domain.PresentedQuestion, len(s.sequence))
	copy(questions, s.sequence)
	answers := make(map[string]string, len(s.ledger.answers))
	for id, a := range s.ledger.answers {
		answers[id] = a
	}
	cells := make([]domain.NavigatorCell, len(s.sequence))
	unanswered := 0
	for i, q := range s.sequence {
		answered := s.ledger.isAnswered(q.ID)
		if !answered {
			unanswered++
		}
		cells[i] = domain.NavigatorCell{
			Index:    i,
			Answered: answered,
			Visited:  s.ledger.isVisited(i),
			Current:  i == s.ledger.current,
			Elective: i >= s.generalCount,
		}
	}
	active := s.submission.open()

	return domain.View{
		AttemptID:     s.attemptID,
		Questions:     questions,
		GeneralCount:  s.generalCount,
		CurrentIndex:  s.ledger.current,
		Answers:       answers,
		AnsweredCount: len(s.ledger.answered),
		TotalExpected: s.totalExpected,
		Progress:      s.ledger.progress(s.totalExpected),
		Navigator:     cells,
		Gate: domain.GateView{
			State:          s.gate.state,
			Subjects:       append([]string(nil), s.subjects...),
			Pending:        s.gate.pending,
			Specialization: s.gate.specialization,
		},
		Timer: domain.TimerView{
			Remaining: s.timer.remaining,
			Unlimited: s.timer.unlimited,
			Expired:   s.timer.expired,
		},
		Proctor: domain.ProctorView{
			Strikes:          s.proctor.strikes,
			MaxStrikes:       s.proctor.maxStrikes,
			WarningActive:    s.proctor.warning,
			WarningRemaining: s.proctor.warningLeft,
			KeyboardLocked:   s.proctor.keyboardLocked,
		},
		Submission: domain.SubmissionView{
			State:      s.submission.state,
			Unanswered: unanswered,
			Reason:     frozenReason(s.submission.frozen),
			Error:      s.submission.lastErr,
			Result:     s.submission.result,
		},
		Restrictions: domain.Restrictions{
			BlockContextMenu:   true,
			BlockClipboard:     true,
			BlockSelection:     true,
			TrapBackNavigation: active,
			ConfirmUnload:      active,
			RequireFullscreen:  active,
		},
		UpdatedAt: s.now(),
	}
}

func frozenReason(sub *Submission) domain.SubmitReason {
	if sub == nil {
		return ""
	}
	return sub.Reason
}

func (s *Session) snapshotLocked() domain.Snapshot {
	order := make([]domain.SnapshotEntry, len(s.sequence))
	for i, q := range s.sequence {
		order[i] = domain.SnapshotEntry{QuestionID: q.ID, Options: append([]string(nil), q.Options...)}
	}
	answers := make(map[string]string, len(s.ledger.answers))
	for id, a := range s.ledger.answers {
		answers[id] = a
	}
	visited := make([]int, 0, len(s.ledger.visited))
	for i := range s.ledger.visited {
		visited = append(visited, i)
	}
	sort.Ints(visited)

	return domain.Snapshot{
		AttemptID:        s.attemptID,
		CriteriaID:       s.criteria.ID,
		SetLabel:         s.setLabel,
		Order:            order,
		GeneralCount:     s.generalCount,
		TotalExpected:    s.totalExpected,
		Answers:          answers,
		Visited:          visited,
		CurrentIndex:     s.ledger.current,
		Remaining:        s.timer.remaining,
		Unlimited:        s.timer.unlimited,
		Strikes:          s.proctor.strikes,
		WarningActive:    s.proctor.warning,
		WarningRemaining: s.proctor.warningLeft,
		KeyboardLocked:   s.proctor.keyboardLocked,
		Specialization:   s.gate.specialization,
		SavedAt:          s.now(),
	}
}

// restore replaces the fresh state with a persisted snapshot. Any
// inconsistency with the current question bank rejects the snapshot whole.
func (s *Session) restore(snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.AttemptID != s.attemptID || snap.CriteriaID != s.criteria.ID || snap.SetLabel != s.setLabel {
		return fmt.Errorf("snapshot belongs to another attempt")
	}
	if len(snap.Order) == 0 || snap.GeneralCount <= 0 || snap.GeneralCount > len(snap.Order) {
		return fmt.Errorf("snapshot order is malformed")
	}
	if snap.TotalExpected <= 0 {
		return fmt.Errorf("snapshot total is malformed")
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.Order) {
		return fmt.Errorf("snapshot index %d out of range", snap.CurrentIndex)
	}

	seq := make([]domain.PresentedQuestion, len(snap.Order))
	for i, e := range snap.Order {
		q, ok := s.canonical[e.QuestionID]
		if !ok {
			return fmt.Errorf("snapshot question %s no longer available", e.QuestionID)
		}
		if q.IsElective() != (i >= snap.GeneralCount) {
			return fmt.Errorf("snapshot question %s changed section", e.QuestionID)
		}
		if !sameOptions(q.Options, e.Options) {
			return fmt.Errorf("snapshot question %s changed options", e.QuestionID)
		}
		seq[i] = domain.PresentedQuestion{
			ID:         q.ID,
			Section:    sectionOf(q),
			Subsection: q.Subsection,
			Category:   q.Category,
			Text:       q.Text,
			Options:    append([]string(nil), e.Options...),
		}
	}

	s.sequence = seq
	s.generalCount = snap.GeneralCount
	s.totalExpected = snap.TotalExpected

	s.ledger = newLedger()
	for id, answer := range snap.Answers {
		idx := s.indexOfLocked(id)
		if idx < 0 {
			continue
		}
		if option, ok := matchOption(seq[idx].Options, answer); ok {
			s.ledger.record(id, option)
		}
	}
	for _, i := range snap.Visited {
		if i >= 0 && i < len(seq) {
			s.ledger.visited[i] = struct{}{}
		}
	}
	s.ledger.moveTo(snap.CurrentIndex)

	if snap.Specialization != "" {
		s.gate.state = domain.GateLocked
		s.gate.specialization = snap.Specialization
	}
	if !snap.Unlimited {
		s.timer = newCountdown(snap.Remaining, false)
	} else {
		s.timer = newCountdown(0, true)
	}
	s.proctor.strikes = snap.Strikes
	if s.proctor.strikes > s.proctor.maxStrikes-1 {
		s.proctor.strikes = s.proctor.maxStrikes - 1
	}
	s.proctor.warning = snap.WarningActive
	s.proctor.warningLeft = snap.WarningRemaining
	if s.proctor.warning && s.proctor.warningLeft <= 0 {
		s.proctor.warningLeft = 1
	}
	s.proctor.keyboardLocked = snap.KeyboardLocked
	return nil
}

func sameOptions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, o := range a {
		counts[o]++
	}
	for _, o := range b {
		counts[o]--
		if counts[o] < 0 {
			return false
		}
	}
	return true
}
