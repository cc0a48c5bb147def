package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"stakepool/native/bonus"
	"stakepool/native/fees"
	"stakepool/native/referral"
	"stakepool/native/stakepool"
)

type Config struct {
	DataDir     string            `toml:"DataDir" yaml:"data_dir"`
	Environment string            `toml:"Environment" yaml:"environment"`
	Log         LogConfig         `toml:"Log" yaml:"log"`
	Protocol    ProtocolConfig    `toml:"Protocol" yaml:"protocol"`
	Fees        fees.Schedule     `toml:"Fees" yaml:"fees"`
	Limits      LimitsConfig      `toml:"Limits" yaml:"limits"`
	Bonus       BonusConfig       `toml:"Bonus" yaml:"bonus"`
	Referral    ReferralConfig    `toml:"Referral" yaml:"referral"`
	Server      ServerConfig      `toml:"Server" yaml:"server"`
	Telemetry   TelemetryConfig   `toml:"Telemetry" yaml:"telemetry"`
}

// Default returns the shipped configuration. Protocol identities are left
// empty and must be filled in before the ledger can be initialised.
func Default() *Config {
	schedule := fees.DefaultSchedule()
	bonusParams := bonus.DefaultParams()
	return &Config{
		DataDir:     "./stakepool-data",
		Environment: "dev",
		Log:         LogConfig{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
		Fees:        schedule,
		Limits: LimitsConfig{
			MinContribution: stakepool.DefaultMinContribution,
			MinWithdrawal:   stakepool.DefaultMinWithdrawal,
			BonusQualifying: bonusParams.QualifyingAmount,
		},
		Bonus: BonusConfig{
			InitialCountdown: NewDuration(bonusParams.InitialCountdown),
			Extension:        NewDuration(bonusParams.Extension),
			Inactivity:       NewDuration(bonusParams.InactivityThreshold),
		},
		Referral: ReferralConfig{Period: NewDuration(referral.DefaultParams().Period)},
		Server: ServerConfig{
			ListenAddress:      ":8090",
			RateLimitPerSecond: 20,
			Burst:              40,
		},
	}
}

// Load loads the configuration from the given path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as TOML. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := createDefault(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config %s: %w (edit the generated file)", path, err)
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.Fees = fees.Schedule{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := decodeYAML(path, cfg); err != nil {
			return nil, err
		}
	default:
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (cfg *Config) normalize() {
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = "./stakepool-data"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.Protocol.Authority = strings.TrimSpace(cfg.Protocol.Authority)
	cfg.Protocol.Platform = strings.TrimSpace(cfg.Protocol.Platform)
	cfg.Protocol.Team = strings.TrimSpace(cfg.Protocol.Team)
	cfg.Server.ListenAddress = strings.TrimSpace(cfg.Server.ListenAddress)
	if len(cfg.Fees.Weights) == 0 {
		cfg.Fees = fees.DefaultSchedule()
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// StakepoolParams converts the configuration into engine parameters.
func (cfg *Config) StakepoolParams() (stakepool.Params, error) {
	params := stakepool.Params{
		Fees:            cfg.Fees.Clone(),
		MinContribution: cfg.Limits.MinContribution,
		MinWithdrawal:   cfg.Limits.MinWithdrawal,
		Bonus: bonus.Params{
			InitialCountdown:    cfg.Bonus.InitialCountdown.Duration,
			Extension:           cfg.Bonus.Extension.Duration,
			InactivityThreshold: cfg.Bonus.Inactivity.Duration,
			QualifyingAmount:    cfg.Limits.BonusQualifying,
		},
		Referral: referral.Params{Period: cfg.Referral.Period.Duration},
	}
	return params, params.Validate()
}
