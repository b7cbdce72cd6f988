package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"interview-quiz-service/internal/domain"
)

// start launches the clock and persistence goroutines. Both stop when the
// session halts or parent is cancelled.
func (s *Session) start(parent context.Context, snapshots SnapshotStore, writer ResultWriter) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.workers.Add(2)
	go func() {
		defer s.workers.Done()
		s.run(ctx)
	}()
	go func() {
		defer s.workers.Done()
		s.persistLoop(ctx, snapshots, writer)
	}()
}

// halt cancels the background goroutines without waiting for them. It is safe
// to call from the clock goroutine itself.
func (s *Session) halt() {
	if s.cancel != nil {
		s.cancel()
	}
}

// stop halts the session and waits for its goroutines to exit.
func (s *Session) stop() {
	s.halt()
	s.workers.Wait()
}

func (s *Session) run(ctx context.Context) {
	clock := time.NewTicker(s.settings.Tick)
	defer clock.Stop()
	compliance := time.NewTicker(s.settings.ComplianceInterval)
	defer compliance.Stop()
	probe := time.NewTicker(s.settings.ProbeInterval)
	defer probe.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clock.C:
			d, expired := s.tick()
			switch {
			case d.forces():
				s.forceSubmit(ctx, d.reason)
			case expired:
				s.forceSubmit(ctx, domain.ReasonTimerExpired)
			}
		case <-compliance.C:
			if kind, bad := s.pollCompliance(); bad {
				s.onViolation(ctx, kind)
			}
		case <-probe.C:
			if s.probeInstrumentation() {
				s.onViolation(ctx, domain.ViolationDevtools)
			}
		}
	}
}

func (s *Session) onViolation(ctx context.Context, kind domain.ViolationKind) {
	if d := s.handleViolation(kind); d.forces() {
		s.forceSubmit(ctx, d.reason)
	}
}

func (s *Session) forceSubmit(ctx context.Context, reason domain.SubmitReason) {
	if _, err := s.submit(ctx, reason); err != nil {
		log.Printf("submit: forced %s for %s: %v", reason, s.attemptID, err)
	}
}

func (s *Session) persistLoop(ctx context.Context, snapshots SnapshotStore, writer ResultWriter) {
	for {
		select {
		case <-ctx.Done():
			s.drainAudits(writer)
			return
		case <-s.saves:
			if err := s.persist(ctx, snapshots); err != nil {
				log.Printf("quiz: save snapshot for %s: %v", s.attemptID, err)
			}
		case ev := <-s.audits:
			s.recordAudit(ctx, writer, ev)
		}
	}
}

func (s *Session) drainAudits(writer ResultWriter) {
	for {
		select {
		case ev := <-s.audits:
			s.recordAudit(context.Background(), writer, ev)
		default:
			return
		}
	}
}

func (s *Session) recordAudit(ctx context.Context, writer ResultWriter, ev domain.ProctorEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.SaveTimeout)
	defer cancel()
	if err := writer.RecordProctorEvent(ctx, ev); err != nil {
		log.Printf("proctor: record %s event for %s: %v", ev.Outcome, ev.AttemptID, err)
	}
}

// persist writes the resume snapshot. Nothing is written once submission has started.
func (s *Session) persist(ctx context.Context, snapshots SnapshotStore) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	if !s.submission.open() {
		s.mu.RUnlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.SaveTimeout)
	defer cancel()
	return snapshots.Save(ctx, s.attemptID, blob)
}
