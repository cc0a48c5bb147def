package bonus

import (
	"fmt"
	"time"
)

// Split of a distributed balance in basis points.
const (
	ContributorsBps uint64 = 4_000
	StakersBps      uint64 = 4_000
	CarryBps        uint64 = 2_000
)

// Params configures the countdown and qualification rules.
type Params struct {
	InitialCountdown    time.Duration
	Extension           time.Duration
	InactivityThreshold time.Duration
	// QualifyingAmount is the minimum gross contribution that extends the
	// countdown and enters the recent-contributor buffer.
	QualifyingAmount uint64
}

// DefaultParams returns the shipped configuration.
func DefaultParams() Params {
	return Params{
		InitialCountdown:    12 * time.Hour,
		Extension:           15 * time.Minute,
		InactivityThreshold: 6 * time.Hour,
		QualifyingAmount:    1_000_000_000,
	}
}

// Validate ensures every duration is a positive whole number of seconds.
func (p Params) Validate() error {
	for name, d := range map[string]time.Duration{
		"initial countdown":    p.InitialCountdown,
		"extension":            p.Extension,
		"inactivity threshold": p.InactivityThreshold,
	} {
		if d < time.Second {
			return fmt.Errorf("bonus: %s must be at least one second", name)
		}
	}
	if p.QualifyingAmount == 0 {
		return fmt.Errorf("bonus: qualifying amount must be positive")
	}
	return nil
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
