package app

import "time"

// Settings are the product parameters of a quiz session.
type Settings struct {
	GeneralQuota       int
	ElectiveQuota      int
	SubsectionOrder    []string
	DefaultSubject     string
	MaxStrikes         int
	WarningSeconds     int
	Tick               time.Duration
	ComplianceInterval time.Duration
	ProbeInterval      time.Duration
	ProbeThreshold     time.Duration
	AutoSubmitOnExpiry bool
	Shuffle            bool
	SaveTimeout        time.Duration
}

// DefaultSettings returns the parameters the portal ships with.
func DefaultSettings() Settings {
	return Settings{
		GeneralQuota:       23,
		ElectiveQuota:      7,
		SubsectionOrder:    []string{"computer_science", "testing", "logical_reasoning", "miscellaneous", "grammar"},
		DefaultSubject:     "java",
		MaxStrikes:         3,
		WarningSeconds:     10,
		Tick:               time.Second,
		ComplianceInterval: time.Second,
		ProbeInterval:      1500 * time.Millisecond,
		ProbeThreshold:     100 * time.Millisecond,
		AutoSubmitOnExpiry: false,
		Shuffle:            true,
		SaveTimeout:        3 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.GeneralQuota <= 0 {
		s.GeneralQuota = d.GeneralQuota
	}
	if s.ElectiveQuota < 0 {
		s.ElectiveQuota = d.ElectiveQuota
	}
	if len(s.SubsectionOrder) == 0 {
		s.SubsectionOrder = d.SubsectionOrder
	}
	if s.MaxStrikes <= 0 {
		s.MaxStrikes = d.MaxStrikes
	}
	if s.WarningSeconds <= 0 {
		s.WarningSeconds = d.WarningSeconds
	}
	if s.Tick <= 0 {
		s.Tick = d.Tick
	}
	if s.ComplianceInterval <= 0 {
		s.ComplianceInterval = d.ComplianceInterval
	}
	if s.ProbeInterval <= 0 {
		s.ProbeInterval = d.ProbeInterval
	}
	if s.ProbeThreshold <= 0 {
		s.ProbeThreshold = d.ProbeThreshold
	}
	if s.SaveTimeout <= 0 {
		s.SaveTimeout = d.SaveTimeout
	}
	return s
}
