package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration wraps time.Duration so TOML and YAML files can use "12h" style
// strings.
type Duration struct {
	time.Duration
}

func NewDuration(d time.Duration) Duration { return Duration{Duration: d} }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// ProtocolConfig names the identities fixed at initialisation.
type ProtocolConfig struct {
	Authority string `toml:"Authority" yaml:"authority"`
	Platform  string `toml:"Platform" yaml:"platform"`
	Team      string `toml:"Team" yaml:"team"`
	// Paused blocks contribute, withdraw and claim.
	Paused bool `toml:"Paused" yaml:"paused"`
}

type LimitsConfig struct {
	MinContribution uint64 `toml:"MinContribution" yaml:"min_contribution"`
	MinWithdrawal   uint64 `toml:"MinWithdrawal" yaml:"min_withdrawal"`
	BonusQualifying uint64 `toml:"BonusQualifying" yaml:"bonus_qualifying"`
}

type BonusConfig struct {
	InitialCountdown Duration `toml:"InitialCountdown" yaml:"initial_countdown"`
	Extension        Duration `toml:"Extension" yaml:"extension"`
	Inactivity       Duration `toml:"Inactivity" yaml:"inactivity"`
}

type ReferralConfig struct {
	Period Duration `toml:"Period" yaml:"period"`
}

// ServerConfig configures the read-only HTTP surface.
type ServerConfig struct {
	ListenAddress      string  `toml:"ListenAddress" yaml:"listen"`
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond" yaml:"rate_limit_per_second"`
	Burst              int     `toml:"Burst" yaml:"burst"`
}

type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
}

// LogConfig enables rotating file output when File is set.
type LogConfig struct {
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
}
