package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"interview-quiz-service/internal/app"
	"interview-quiz-service/internal/scheduler"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		// DSN enables the sqlite snapshot store when Redis is not configured.
		DSN string `yaml:"dsn"`
	} `yaml:"sqlite"`
	Quiz      Quiz      `yaml:"quiz"`
	Scheduler Scheduler `yaml:"scheduler"`
}

// Quiz holds the product parameters of a session.
type Quiz struct {
	GeneralQuota       int      `yaml:"general_quota"`
	ElectiveQuota      *int     `yaml:"elective_quota"`
	SubsectionOrder    []string `yaml:"subsection_order"`
	DefaultSubject     string   `yaml:"default_subject"`
	MaxStrikes         int      `yaml:"max_strikes"`
	WarningSeconds     int      `yaml:"warning_seconds"`
	Tick               string   `yaml:"tick"`
	ComplianceInterval string   `yaml:"compliance_interval"`
	ProbeInterval      string   `yaml:"probe_interval"`
	ProbeThreshold     string   `yaml:"probe_threshold"`
	AutoSubmitOnExpiry bool     `yaml:"auto_submit_on_expiry"`
	Shuffle            *bool    `yaml:"shuffle"`
	SaveTimeout        string   `yaml:"save_timeout"`
	SnapshotTTL        string   `yaml:"snapshot_ttl"`
	CacheTTL           string   `yaml:"cache_ttl"`
	// TTL is the older name of CacheTTL.
	TTL                string   `yaml:"ttl"`
}

type Scheduler struct {
	CheckpointEvery string `yaml:"checkpoint_every"`
	ReapEvery       string `yaml:"reap_every"`
	IdleAfter       string `yaml:"idle_after"`
	PruneEvery      string `yaml:"prune_every"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Settings maps the quiz section onto session settings. Unset fields keep
// the shipped defaults.
func (q Quiz) Settings() app.Settings {
	s := app.DefaultSettings()
	if q.GeneralQuota > 0 {
		s.GeneralQuota = q.GeneralQuota
	}
	if q.ElectiveQuota != nil && *q.ElectiveQuota >= 0 {
		s.ElectiveQuota = *q.ElectiveQuota
	}
	if len(q.SubsectionOrder) > 0 {
		s.SubsectionOrder = q.SubsectionOrder
	}
	if q.DefaultSubject != "" {
		s.DefaultSubject = q.DefaultSubject
	}
	if q.MaxStrikes > 0 {
		s.MaxStrikes = q.MaxStrikes
	}
	if q.WarningSeconds > 0 {
		s.WarningSeconds = q.WarningSeconds
	}
	s.Tick = TTLDuration(q.Tick, s.Tick)
	s.ComplianceInterval = TTLDuration(q.ComplianceInterval, s.ComplianceInterval)
	s.ProbeInterval = TTLDuration(q.ProbeInterval, s.ProbeInterval)
	s.ProbeThreshold = TTLDuration(q.ProbeThreshold, s.ProbeThreshold)
	s.AutoSubmitOnExpiry = q.AutoSubmitOnExpiry
	if q.Shuffle != nil {
		s.Shuffle = *q.Shuffle
	}
	s.SaveTimeout = TTLDuration(q.SaveTimeout, s.SaveTimeout)
	return s
}

func (q Quiz) SnapshotTTLDuration() time.Duration {
	return TTLDuration(q.SnapshotTTL, 24*time.Hour)
}

func (q Quiz) CacheTTLDuration() time.Duration {
	if q.CacheTTL != "" {
		return TTLDuration(q.CacheTTL, 10*time.Minute)
	}
	return TTLDuration(q.TTL, 10*time.Minute)
}

// Options maps the scheduler section onto job cadences.
func (s Scheduler) Options() scheduler.Options {
	return scheduler.Options{
		CheckpointEvery: TTLDuration(s.CheckpointEvery, 15*time.Second),
		ReapEvery:       TTLDuration(s.ReapEvery, time.Minute),
		IdleAfter:       TTLDuration(s.IdleAfter, 2*time.Hour),
		PruneEvery:      TTLDuration(s.PruneEvery, time.Hour),
	}
}
