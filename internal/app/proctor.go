package app

import (
	"strings"

	"interview-quiz-service/internal/domain"
)

// proctor is the strike and warning state of one session.
//
// Per violation cycle: Compliant -> ViolationDetected -> WarningShown(countdown)
// -> Resumed | Escalated. Violations arriving while a warning shows collapse
// into it.
type proctor struct {
	maxStrikes     int
	warningSeconds int

	strikes        int
	warning        bool
	warningLeft    int
	keyboardLocked bool
}

type proctorDecision struct {
	outcome domain.ProctorOutcome
	// reason is set when the decision forces submission.
	reason domain.SubmitReason
}

func (d proctorDecision) forces() bool {
	return d.reason != ""
}

func newProctor(maxStrikes, warningSeconds int) proctor {
	return proctor{maxStrikes: maxStrikes, warningSeconds: warningSeconds}
}

func (p *proctor) violate() proctorDecision {
	if p.warning {
		return proctorDecision{outcome: domain.OutcomeIgnored}
	}
	if p.strikes >= p.maxStrikes-1 {
		return proctorDecision{outcome: domain.OutcomeEscalated, reason: domain.ReasonProctorMaxStrikes}
	}
	p.warning = true
	p.warningLeft = p.warningSeconds
	return proctorDecision{outcome: domain.OutcomeWarned}
}

// tick advances the warning countdown by one second.
func (p *proctor) tick() proctorDecision {
	if !p.warning {
		return proctorDecision{}
	}
	p.warningLeft--
	if p.warningLeft > 0 {
		return proctorDecision{}
	}
	p.warning = false
	p.warningLeft = 0
	return proctorDecision{outcome: domain.OutcomeTimedOut, reason: domain.ReasonProctorTimeout}
}

func (p *proctor) resume() error {
	if !p.warning {
		return domain.ErrNoWarningActive
	}
	p.strikes++
	p.warning = false
	p.warningLeft = 0
	return nil
}

func (p *proctor) quit() error {
	if !p.warning {
		return domain.ErrNoWarningActive
	}
	p.warning = false
	p.warningLeft = 0
	return nil
}

// navigationKeys stay usable once the keyboard is locked down.
var navigationKeys = map[string]struct{}{
	"ArrowLeft":  {},
	"ArrowRight": {},
	"ArrowUp":    {},
	"ArrowDown":  {},
	"Tab":        {},
	"Enter":      {},
	"PageUp":     {},
	"PageDown":   {},
	"Home":       {},
	"End":        {},
}

// screenshotKey reports capture shortcuts: PrintScreen, macOS Cmd+Shift+3/4/5/6
// and Windows Win+Shift+S.
func screenshotKey(k domain.KeyPress) bool {
	if k.Key == "PrintScreen" || k.Code == "PrintScreen" || k.Key == "Snapshot" {
		return true
	}
	if !k.Meta || !k.Shift {
		return false
	}
	switch k.Code {
	case "Digit3", "Digit4", "Digit5", "Digit6", "KeyS":
		return true
	}
	return strings.EqualFold(k.Key, "s")
}

// classify decides what happens to a key press. blocking is the site-wide
// screenshot-blocking toggle.
func (p *proctor) classify(k domain.KeyPress, blocking bool) domain.KeyVerdict {
	if !blocking {
		return domain.KeyVerdict{Allowed: true}
	}
	if screenshotKey(k) {
		p.keyboardLocked = true
		return domain.KeyVerdict{Allowed: false, ScrubClipboard: true, Violation: true}
	}
	if !p.keyboardLocked {
		return domain.KeyVerdict{Allowed: true}
	}
	_, ok := navigationKeys[k.Key]
	return domain.KeyVerdict{Allowed: ok}
}
