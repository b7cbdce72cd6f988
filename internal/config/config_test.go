package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMapsQuizSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
quiz:
  general_quota: 10
  elective_quota: 0
  max_strikes: 5
  probe_threshold: 250ms
  shuffle: false
  auto_submit_on_expiry: true
  ttl: 5m
scheduler:
  idle_after: 30m
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}

	s := cfg.Quiz.Settings()
	if s.GeneralQuota != 10 || s.ElectiveQuota != 0 || s.MaxStrikes != 5 {
		t.Fatalf("unexpected quotas %+v", s)
	}
	if s.ProbeThreshold != 250*time.Millisecond || s.Shuffle || !s.AutoSubmitOnExpiry {
		t.Fatalf("unexpected proctor settings %+v", s)
	}
	if s.DefaultSubject != "java" || s.WarningSeconds != 10 || s.Tick != time.Second {
		t.Fatalf("expected defaults for unset fields, got %+v", s)
	}
	if got := cfg.Quiz.CacheTTLDuration(); got != 5*time.Minute {
		t.Fatalf("expected legacy ttl to apply, got %v", got)
	}
	if got := cfg.Quiz.SnapshotTTLDuration(); got != 24*time.Hour {
		t.Fatalf("expected default snapshot ttl, got %v", got)
	}

	opts := cfg.Scheduler.Options()
	if opts.IdleAfter != 30*time.Minute || opts.CheckpointEvery != 15*time.Second {
		t.Fatalf("unexpected scheduler options %+v", opts)
	}
}

func TestTTLDurationFallsBack(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty: got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("invalid: got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("valid: got %v", got)
	}
}
