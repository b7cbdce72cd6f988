package app

import (
	"sync"
	"time"

	"interview-quiz-service/internal/domain"
)

// ComplianceTracker holds the last compliance status reported by a client.
// Until the first report the client is assumed compliant.
type ComplianceTracker struct {
	mu     sync.RWMutex
	status domain.ComplianceStatus
}

func NewComplianceTracker() *ComplianceTracker {
	return &ComplianceTracker{status: domain.ComplianceStatus{Fullscreen: true, Focused: true, Visible: true}}
}

// Update records a new status.
func (t *ComplianceTracker) Update(status domain.ComplianceStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

func (t *ComplianceTracker) Compliance() domain.ComplianceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// PauseProbe turns client-reported breakpoint pause timings into an
// instrumentation signal. Each long pause is reported once.
type PauseProbe struct {
	threshold time.Duration

	mu      sync.Mutex
	tripped bool
}

func NewPauseProbe(threshold time.Duration) *PauseProbe {
	return &PauseProbe{threshold: threshold}
}

// Report records one probe measurement.
func (p *PauseProbe) Report(pause time.Duration) {
	if pause <= p.threshold {
		return
	}
	p.mu.Lock()
	p.tripped = true
	p.mu.Unlock()
}

func (p *PauseProbe) DetectInstrumentation() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	tripped := p.tripped
	p.tripped = false
	return tripped
}
