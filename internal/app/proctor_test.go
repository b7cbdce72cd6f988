package app

import (
	"errors"
	"testing"

	"interview-quiz-service/internal/domain"
)

func TestProctorThreeStrikeEscalation(t *testing.T) {
	p := newProctor(3, 10)

	for strike := 0; strike < 2; strike++ {
		if d := p.violate(); d.outcome != domain.OutcomeWarned || d.forces() {
			t.Fatalf("violation %d: expected warning, got %+v", strike+1, d)
		}
		if d := p.violate(); d.outcome != domain.OutcomeIgnored {
			t.Fatalf("violation during warning should be ignored, got %+v", d)
		}
		if err := p.resume(); err != nil {
			t.Fatalf("resume: %v", err)
		}
	}
	if p.strikes != 2 {
		t.Fatalf("expected 2 strikes, got %d", p.strikes)
	}
	d := p.violate()
	if d.outcome != domain.OutcomeEscalated || d.reason != domain.ReasonProctorMaxStrikes {
		t.Fatalf("third violation should escalate, got %+v", d)
	}
}

func TestProctorWarningTimesOut(t *testing.T) {
	p := newProctor(3, 10)
	p.violate()
	for i := 0; i < 9; i++ {
		if d := p.tick(); d.forces() {
			t.Fatalf("forced too early at tick %d", i+1)
		}
	}
	d := p.tick()
	if d.reason != domain.ReasonProctorTimeout {
		t.Fatalf("expected timeout on tenth tick, got %+v", d)
	}
	if err := p.resume(); !errors.Is(err, domain.ErrNoWarningActive) {
		t.Fatalf("expected no warning active, got %v", err)
	}
}

func TestClassifyKeys(t *testing.T) {
	p := newProctor(3, 10)

	if v := p.classify(domain.KeyPress{Key: "PrintScreen"}, false); !v.Allowed || v.Violation {
		t.Fatalf("blocking disabled should allow everything, got %+v", v)
	}
	if v := p.classify(domain.KeyPress{Key: "a"}, true); !v.Allowed {
		t.Fatalf("ordinary key should pass before lockdown")
	}
	v := p.classify(domain.KeyPress{Key: "4", Code: "Digit4", Meta: true, Shift: true}, true)
	if v.Allowed || !v.Violation || !v.ScrubClipboard || !p.keyboardLocked {
		t.Fatalf("screenshot chord should lock keyboard, got %+v", v)
	}
	if v := p.classify(domain.KeyPress{Key: "a"}, true); v.Allowed {
		t.Fatalf("locked keyboard should block non-navigation keys")
	}
	if v := p.classify(domain.KeyPress{Key: "ArrowRight"}, true); !v.Allowed || v.Violation {
		t.Fatalf("navigation keys should pass when locked, got %+v", v)
	}
}
