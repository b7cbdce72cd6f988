package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
	"interview-quiz-service/internal/domain"
)

// SessionContext identifies the attempt a client wants to run.
type SessionContext struct {
	AttemptID         string
	CriteriaID        string
	SetLabel          string
	DeviceFingerprint string
}

// load builds a session from the remote store, resuming from the persisted
// snapshot when one is present and still consistent with the question bank.
func (s *QuizService) load(ctx context.Context, sc SessionContext) (*Session, error) {
	attempt, err := s.store.Attempt(ctx, sc.AttemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == domain.AttemptCompleted {
		if err := s.snapshots.Clear(ctx, sc.AttemptID); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			log.Printf("quiz: clear stale snapshot for %s: %v", sc.AttemptID, err)
		}
		return nil, domain.ErrAttemptCompleted
	}
	if sc.CriteriaID != "" && sc.CriteriaID != attempt.CriteriaID {
		return nil, domain.ErrCriteriaMismatch
	}
	setLabel := sc.SetLabel
	if setLabel == "" {
		setLabel = attempt.SetLabel
	} else if attempt.SetLabel != "" && attempt.SetLabel != setLabel {
		return nil, domain.ErrCriteriaMismatch
	}

	var (
		criteria domain.Criteria
		site     domain.SiteSettings
		override *domain.DriveOverride
		assembly *Assembly
		blob     []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		criteria, err = s.store.Criteria(gctx, attempt.CriteriaID)
		return err
	})
	g.Go(func() error {
		var err error
		site, err = s.store.SiteSettings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		override, err = s.store.DriveOverride(gctx, attempt.CriteriaID, s.now())
		return err
	})
	g.Go(func() error {
		var err error
		assembly, err = s.assembler.Assemble(gctx, attempt.CriteriaID, setLabel, "")
		return err
	})
	g.Go(func() error {
		var err error
		blob, err = s.snapshots.Load(gctx, sc.AttemptID)
		if err != nil {
			if !errors.Is(err, domain.ErrSnapshotNotFound) {
				log.Printf("quiz: load snapshot for %s: %v", sc.AttemptID, err)
			}
			blob = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !criteria.Active {
		return nil, domain.ErrCriteriaInactive
	}

	fingerprint := sc.DeviceFingerprint
	if fingerprint == "" {
		fingerprint = attempt.DeviceFingerprint
	}
	sess := newSession(sessionConfig{
		attemptID:   attempt.ID,
		setLabel:    setLabel,
		fingerprint: fingerprint,
		criteria:    criteria,
		site:        site,
		settings:    s.settings,
		assembly:    assembly,
		timer:       initialTimer(criteria, override),
		pipeline:    s.pipeline,
		now:         s.now,
	})

	if blob != nil {
		if err := s.resume(sess, blob); err != nil {
			log.Printf("quiz: discarding snapshot for %s: %v", attempt.ID, err)
			if err := s.snapshots.Clear(ctx, attempt.ID); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
				log.Printf("quiz: clear snapshot for %s: %v", attempt.ID, err)
			}
		} else {
			log.Printf("quiz: attempt %s resumed from snapshot", attempt.ID)
		}
	}
	return sess, nil
}

func (s *QuizService) resume(sess *Session, blob []byte) error {
	var snap domain.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return sess.restore(snap)
}

// initialTimer picks the session length: a drive override for today wins over
// the criteria timer; neither means unlimited.
func initialTimer(criteria domain.Criteria, override *domain.DriveOverride) countdown {
	if override != nil && override.TimeLimitMinutes > 0 {
		return newCountdown(override.TimeLimitMinutes*60, false)
	}
	if criteria.TimerMinutes != nil && *criteria.TimerMinutes > 0 {
		return newCountdown(*criteria.TimerMinutes*60, false)
	}
	return newCountdown(0, true)
}
