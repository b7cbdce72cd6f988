package app

import "interview-quiz-service/internal/domain"

const noDeferredJump = -1

// gate is the one-shot specialization decision.
type gate struct {
	state          domain.GateState
	pending        string
	deferred       int
	specialization string
}

func newGate() gate {
	return gate{state: domain.GateClosed, deferred: noDeferredJump}
}

func (g *gate) locked() bool {
	return g.state == domain.GateLocked
}

// open shows the subject choices, remembering the jump that triggered it.
func (g *gate) open(deferred int) {
	if g.locked() {
		return
	}
	g.state = domain.GateChoosing
	g.pending = ""
	g.deferred = deferred
}

func (g *gate) choose(subject string) error {
	switch g.state {
	case domain.GateLocked:
		return domain.ErrSpecializationLocked
	case domain.GateChoosing:
		g.pending = subject
		g.state = domain.GateConfirming
		return nil
	default:
		return domain.ErrGateNotOpen
	}
}

// cancel steps back from confirmation to the subject list without side effects.
func (g *gate) cancel() error {
	switch g.state {
	case domain.GateLocked:
		return domain.ErrSpecializationLocked
	case domain.GateConfirming:
		g.pending = ""
		g.state = domain.GateChoosing
		return nil
	default:
		return domain.ErrGateNotOpen
	}
}

// dismiss closes the gate without choosing.
func (g *gate) dismiss() error {
	switch g.state {
	case domain.GateLocked:
		return domain.ErrSpecializationLocked
	case domain.GateChoosing, domain.GateConfirming:
		g.state = domain.GateClosed
		g.pending = ""
		g.deferred = noDeferredJump
		return nil
	default:
		return domain.ErrGateNotOpen
	}
}

// confirm commits the pending subject and returns it with the deferred jump target.
func (g *gate) confirm() (string, int, error) {
	switch g.state {
	case domain.GateLocked:
		return "", noDeferredJump, domain.ErrSpecializationLocked
	case domain.GateConfirming:
		g.specialization = g.pending
		g.pending = ""
		g.state = domain.GateLocked
		deferred := g.deferred
		g.deferred = noDeferredJump
		return g.specialization, deferred, nil
	default:
		return "", noDeferredJump, domain.ErrGateNotOpen
	}
}
