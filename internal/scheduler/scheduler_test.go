package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingMaintainer struct {
	mu          sync.Mutex
	checkpoints int
	reaps       int
	idle        time.Duration
}

func (m *recordingMaintainer) Checkpoint(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints++
	return 1, nil
}

func (m *recordingMaintainer) ReapIdle(_ context.Context, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reaps++
	m.idle = idle
	return 0
}

func (m *recordingMaintainer) counts() (int, int, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoints, m.reaps, m.idle
}

func TestSchedulerRunsMaintenanceJobs(t *testing.T) {
	m := &recordingMaintainer{}
	s := New(m, nil, Options{
		CheckpointEvery: 20 * time.Millisecond,
		ReapEvery:       20 * time.Millisecond,
		IdleAfter:       time.Minute,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		checkpoints, reaps, idle := m.counts()
		if checkpoints > 0 && reaps > 0 {
			if idle != time.Minute {
				t.Fatalf("expected idle threshold passed through, got %v", idle)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("jobs did not run")
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	m := &recordingMaintainer{}
	s := New(m, nil, Options{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	if checkpoints, reaps, _ := m.counts(); checkpoints != 0 || reaps != 0 {
		t.Fatalf("disabled jobs ran: %d %d", checkpoints, reaps)
	}
}

type countingHeartbeat struct {
	mu      sync.Mutex
	touches int
}

func (h *countingHeartbeat) Touch(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.touches++
	return nil
}

func (h *countingHeartbeat) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.touches
}

func TestSchedulerRefreshesHeartbeat(t *testing.T) {
	h := &countingHeartbeat{}
	s := New(&recordingMaintainer{}, nil, Options{CheckpointEvery: 20 * time.Millisecond}).WithHeartbeat(h)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.count() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("heartbeat did not run")
}
