package app

import (
	"errors"
	"testing"

	"interview-quiz-service/internal/domain"
)

func TestGateIsOneShot(t *testing.T) {
	g := newGate()
	if err := g.choose("java"); !errors.Is(err, domain.ErrGateNotOpen) {
		t.Fatalf("expected gate not open, got %v", err)
	}

	g.open(25)
	if err := g.choose("java"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if err := g.cancel(); err != nil || g.state != domain.GateChoosing || g.pending != "" {
		t.Fatalf("cancel should return to choosing without side effects: %v %+v", err, g)
	}
	if err := g.choose("python"); err != nil {
		t.Fatalf("choose again: %v", err)
	}
	subject, deferred, err := g.confirm()
	if err != nil || subject != "python" || deferred != 25 {
		t.Fatalf("confirm: %q %d %v", subject, deferred, err)
	}

	g.open(noDeferredJump)
	if g.state != domain.GateLocked {
		t.Fatalf("locked gate must not reopen")
	}
	for name, err := range map[string]error{
		"choose":  g.choose("java"),
		"cancel":  g.cancel(),
		"dismiss": g.dismiss(),
	} {
		if !errors.Is(err, domain.ErrSpecializationLocked) {
			t.Fatalf("%s after lock: expected locked, got %v", name, err)
		}
	}
}

func TestLedgerProgressUsesFixedTotal(t *testing.T) {
	l := newLedger()
	l.record("q1", "a")
	l.record("q1", "b")
	l.record("q2", "c")
	if got := l.progress(30); got != 2.0/30 {
		t.Fatalf("unexpected progress %v", got)
	}
	l.forget("q2")
	if l.isAnswered("q2") || len(l.answered) != 1 {
		t.Fatalf("forget should drop the answer")
	}
	l.moveTo(4)
	if !l.isVisited(0) || !l.isVisited(4) || l.isVisited(2) {
		t.Fatalf("unexpected visited set %v", l.visited)
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	c := newCountdown(2, false)
	if c.tick() {
		t.Fatalf("expired early")
	}
	if !c.tick() || !c.expired || c.remaining != 0 {
		t.Fatalf("expected expiry on second tick: %+v", c)
	}
	if c.tick() {
		t.Fatalf("expiry must be reported once")
	}
	u := newCountdown(0, true)
	if u.tick() || u.expired {
		t.Fatalf("unlimited timer never expires")
	}
}
